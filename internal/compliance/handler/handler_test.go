package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"conforma/internal/compliance"
	"conforma/internal/compliance/handler/mocks"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger).Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) evaluateRequest() EvaluateRequest {
	return EvaluateRequest{
		Part: PartRequest{
			PartNumber: "K123456R001",
			Title:      "FLR-25 Radar Assembly",
			Family:     "FLR-25",
			Resistor:   true,
		},
		Elements: []ElementRequest{
			{ID: "K300001H001", Title: "Dataset FLR-25", Description: "DATASET", Quantity: "1.0"},
		},
		Parameters: map[string]string{"Use Status": "Series"},
	}
}

func (s *HandlerSuite) authorized(req *http.Request) *http.Request {
	return testutil.WithUserID(req, uuid.NewString())
}

func (s *HandlerSuite) sampleRun() *compliance.Run {
	return &compliance.Run{
		ID:         id.NewRunID(),
		PartNumber: "K123456R001",
		Family:     compliance.FamilyFLR25,
		Variant:    compliance.VariantR,
		Kind:       compliance.KindRadar,
		Conformant: true,
	}
}

func (s *HandlerSuite) TestHandleEvaluate() {
	s.Run("evaluates and returns the run", func() {
		s.SetupTest()
		run := s.sampleRun()
		s.service.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, input compliance.EvaluateInput) (*compliance.Run, error) {
				s.Equal("K123456R001", input.Product.PartNumber)
				s.Equal(compliance.FamilyFLR25, input.Product.Family)
				s.True(input.Product.Options.Resistor)
				s.Len(input.Elements, 1)
				return run, nil
			})

		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/evaluate", s.evaluateRequest()))
		w := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusCreated, w.Code)
		resp := testutil.UnmarshalResponse[RunResponse](s.T(), w)
		s.Equal(run.ID.String(), resp.ID)
		s.True(resp.Conformant)
	})

	s.Run("rejects unauthenticated requests", func() {
		s.SetupTest()
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/evaluate", s.evaluateRequest())
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("rejects a missing part number", func() {
		s.SetupTest()
		body := []byte(`{"part":{"title":"FLR-25 Radar Assembly","family":"FLR-25"}}`)
		req := s.authorized(httptest.NewRequest(http.MethodPost, "/compliance/evaluate", bytes.NewReader(body)))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("rejects an unknown family", func() {
		s.SetupTest()
		body := []byte(`{"part":{"part_number":"K123456R001","title":"Radar","family":"FLR-99"}}`)
		req := s.authorized(httptest.NewRequest(http.MethodPost, "/compliance/evaluate", bytes.NewReader(body)))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("rejects a configuration export without its reference file", func() {
		s.SetupTest()
		body := s.evaluateRequest()
		body.ConfigINI = []byte("[PARAM1]\nPARAMETERNAME=\"CAN_BAUD\"\nPARAMETERVALUE=\"500\"\n")
		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/evaluate", body))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("maps service errors to HTTP statuses", func() {
		s.SetupTest()
		s.service.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "classification failed"))

		req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/compliance/evaluate", s.evaluateRequest()))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestHandleGetRun() {
	s.Run("returns a stored run", func() {
		s.SetupTest()
		run := s.sampleRun()
		s.service.EXPECT().GetRun(gomock.Any(), run.ID).Return(run, nil)

		req := s.authorized(httptest.NewRequest(http.MethodGet, "/compliance/runs/"+run.ID.String(), nil))
		w := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, w.Code)
		resp := testutil.UnmarshalResponse[RunResponse](s.T(), w)
		s.Equal(run.PartNumber, resp.PartNumber)
	})

	s.Run("rejects malformed run IDs", func() {
		s.SetupTest()
		req := s.authorized(httptest.NewRequest(http.MethodGet, "/compliance/runs/not-a-uuid", nil))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("maps not found", func() {
		s.SetupTest()
		runID := id.NewRunID()
		s.service.EXPECT().GetRun(gomock.Any(), runID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "run not found"))

		req := s.authorized(httptest.NewRequest(http.MethodGet, "/compliance/runs/"+runID.String(), nil))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *HandlerSuite) TestHandleListRuns() {
	s.Run("returns runs for a part", func() {
		s.SetupTest()
		run := s.sampleRun()
		s.service.EXPECT().ListRuns(gomock.Any(), "K123456R001", 5).
			Return([]*compliance.Run{run}, nil)

		req := s.authorized(httptest.NewRequest(http.MethodGet, "/compliance/runs?part_number=K123456R001&limit=5", nil))
		w := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, w.Code)
		resp := testutil.UnmarshalResponse[RunListResponse](s.T(), w)
		s.Require().Len(resp.Runs, 1)
		s.Equal(run.ID.String(), resp.Runs[0].ID)
	})

	s.Run("requires a part number", func() {
		s.SetupTest()
		req := s.authorized(httptest.NewRequest(http.MethodGet, "/compliance/runs", nil))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("rejects a non-numeric limit", func() {
		s.SetupTest()
		req := s.authorized(httptest.NewRequest(http.MethodGet, "/compliance/runs?part_number=K1&limit=x", nil))
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}
