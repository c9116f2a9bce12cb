package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/audit"
	"conforma/pkg/requestcontext"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type fakeStore struct {
	runs    map[id.RunID]*Run
	byPart  map[string][]*Run
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:   make(map[id.RunID]*Run),
		byPart: make(map[string][]*Run),
	}
}

func (f *fakeStore) SaveRun(_ context.Context, run *Run) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.runs[run.ID] = run
	f.byPart[run.PartNumber] = append(f.byPart[run.PartNumber], run)
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID id.RunID) (*Run, error) {
	run, ok := f.runs[runID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "run not found")
	}
	return run, nil
}

func (f *fakeStore) ListRunsByPart(_ context.Context, partNumber string, limit int) ([]*Run, error) {
	runs := f.byPart[partNumber]
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

type fakeCache struct {
	entries map[id.RunID]*Run
	sets    int
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[id.RunID]*Run)}
}

func (f *fakeCache) Get(_ context.Context, runID id.RunID) (*Run, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	run, ok := f.entries[runID]
	return run, ok, nil
}

func (f *fakeCache) Set(_ context.Context, run *Run) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.entries[run.ID] = run
	return nil
}

type fakeAudit struct {
	events []audit.Event
	err    error
}

func (f *fakeAudit) Emit(_ context.Context, event audit.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAudit) lastAction() string {
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1].Action
}

type fakeTxRunner struct {
	calls int
	err   error
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type ServiceSuite struct {
	suite.Suite
	store   *fakeStore
	cache   *fakeCache
	audit   *fakeAudit
	service *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = newFakeStore()
	s.cache = newFakeCache()
	s.audit = &fakeAudit{}
	s.service = NewService(
		NewCatalog(DefaultReferenceIDs()),
		s.store,
		WithCache(s.cache),
		WithAudit(s.audit),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithUserID(context.Background(), id.UserID(uuid.New()))
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

// conformingRadarInput builds a complete intercompany radar record that
// passes every engine.
func (s *ServiceSuite) conformingRadarInput() EvaluateInput {
	return EvaluateInput{
		Product: ProductContext{
			PartNumber: "K123456X001",
			Title:      "FLR-25 Radar Assembly",
			Family:     FamilyFLR25,
			Options:    Options{Resistor: true},
		},
		Elements: []StructuralElement{
			{ID: "K300001H001", Title: "Dataset FLR-25", Description: "DATASET", Quantity: "1.0"},
			{ID: "K300002H001", Title: "Software Main", Description: "APPLICATION VER FU123456", Quantity: "1.0"},
			{ID: "K300003H001", Title: "Software Loader", Description: "Boot Software NA654321", Quantity: "1.0"},
			{ID: "K218450H002", Title: "Radar Sensor", Description: "Radar with CAN termination", Quantity: "1.0"},
		},
		Documents: []DocumentRecord{
			{Title: "ASM-01 Schedule", Kind: "Assembly Drawing", Lifecycle: LifecycleReleased},
			{Title: "ASM-02 CAD", Kind: "Assembly Drawing", Lifecycle: LifecycleApproved},
			{Title: "COMP-01", Kind: "Component Drawing", Lifecycle: LifecycleWorking},
			{Title: "SD-01, US", Kind: "Service Data", Lifecycle: LifecycleReleased},
		},
		Parameters: map[string]string{
			"Article Type Value":            "AF; Finished Part",
			"Saleable Item Type Value":      "N; Not for external sale",
			"Title ID Value":                "Front Radar Assembly; 3753",
			"Use Status":                    "Series",
			"Type Number":                   "FLR-25",
			"Product Group":                 "29LA",
			"Product Group Disp":            "Forward Looking Radar",
			"Device Code":                   "50007",
			"Price Book":                    "BXA (air products)",
			"Basic Part Number":             "K123456",
			"Sales Channel Limitation":      "Inter company only",
			"Number of S/C":                 "4",
			"Number of C/C":                 "2",
			"Application":                   "Truck",
			"Product Type":                  "Radar",
			"CAN Baud Rate":                 "500K",
			"Connector":                     "AMP",
			"Connector 2":                   "AMP",
			"Software Version":              "BX123456",
			"Maximum Operating Temperature": "85C",
			"Minimum Operating Temperature": "-40C",
		},
	}
}

func (s *ServiceSuite) TestEvaluate() {
	s.Run("conforming record produces a conformant run", func() {
		s.SetupTest()
		run, err := s.service.Evaluate(s.ctx(), s.conformingRadarInput())
		s.Require().NoError(err)
		s.True(run.Conformant)
		s.Equal(FamilyFLR25, run.Family)
		s.Equal(VariantX, run.Variant)
		s.False(run.ID.IsNil())

		saved, err := s.store.GetRun(context.Background(), run.ID)
		s.Require().NoError(err)
		s.Equal(run.ID, saved.ID)
		s.Equal(1, s.cache.sets)

		s.Require().Len(s.audit.events, 1)
		s.Equal(string(audit.EventEvaluationCompleted), s.audit.events[0].Action)
		s.Equal("conformant", s.audit.events[0].Verdict)
		s.Equal("K123456X001", s.audit.events[0].Subject)
		s.Equal("req-1", s.audit.events[0].RequestID)
	})

	s.Run("hard findings flip the verdict", func() {
		s.SetupTest()
		input := s.conformingRadarInput()
		input.Parameters["Device Code"] = "99999"

		run, err := s.service.Evaluate(s.ctx(), input)
		s.Require().NoError(err)
		s.False(run.Conformant)
		s.Equal("non_conformant", s.audit.events[0].Verdict)
		s.Positive(run.Result.HardFindingCount())
	})

	s.Run("classification failure rejects the evaluation", func() {
		s.SetupTest()
		input := s.conformingRadarInput()
		input.Product.PartNumber = "K123456001" // no variant letter

		_, err := s.service.Evaluate(s.ctx(), input)
		s.Require().Error(err)
		s.ErrorIs(err, ErrClassification)
		s.Empty(s.store.runs)
		s.Equal(string(audit.EventEvaluationRejected), s.audit.lastAction())
	})

	s.Run("missing catalog rule yields a non-conformant run", func() {
		s.SetupTest()
		input := s.conformingRadarInput()
		input.Product.PartNumber = "K123456N001" // no exchange rules for this generation

		run, err := s.service.Evaluate(s.ctx(), input)
		s.Require().NoError(err)
		s.True(run.Result.NoRuleDefined)
		s.False(run.Conformant)
		s.Equal("no_rule_defined", s.audit.events[0].Verdict)
	})

	s.Run("audit failure fails the run", func() {
		s.SetupTest()
		s.audit.err = errors.New("outbox unavailable")

		_, err := s.service.Evaluate(s.ctx(), s.conformingRadarInput())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("store failure fails the run", func() {
		s.SetupTest()
		s.store.saveErr = errors.New("db down")

		_, err := s.service.Evaluate(s.ctx(), s.conformingRadarInput())
		s.Require().Error(err)
		s.Empty(s.audit.events)
	})

	s.Run("run and audit writes share the transaction", func() {
		s.SetupTest()
		runner := &fakeTxRunner{}
		svc := NewService(NewCatalog(DefaultReferenceIDs()), s.store,
			WithCache(s.cache),
			WithAudit(s.audit),
			WithTxRunner(runner),
		)

		run, err := svc.Evaluate(s.ctx(), s.conformingRadarInput())
		s.Require().NoError(err)
		s.Equal(1, runner.calls)
		s.Contains(s.store.runs, run.ID)
		s.Len(s.audit.events, 1)
	})

	s.Run("transaction failure fails the run", func() {
		s.SetupTest()
		runner := &fakeTxRunner{err: errors.New("serialization conflict")}
		svc := NewService(NewCatalog(DefaultReferenceIDs()), s.store,
			WithCache(s.cache),
			WithAudit(s.audit),
			WithTxRunner(runner),
		)

		_, err := svc.Evaluate(s.ctx(), s.conformingRadarInput())
		s.Require().Error(err)
		s.Zero(s.cache.sets)
	})

	s.Run("cache failures do not fail the run", func() {
		s.SetupTest()
		s.cache.setErr = errors.New("redis down")

		run, err := s.service.Evaluate(s.ctx(), s.conformingRadarInput())
		s.Require().NoError(err)
		s.True(run.Conformant)
	})

	s.Run("malformed configuration archive rejects the evaluation", func() {
		s.SetupTest()
		input := s.conformingRadarInput()
		input.ConfigArchive = []byte("not a zip")

		_, err := s.service.Evaluate(s.ctx(), input)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("configuration diff uses the reference file, not the extraction", func() {
		s.SetupTest()
		input := s.conformingRadarInput()
		input.ConfigINI = []byte(`[PARAM1]
PARAMETERNAME="CAN_BAUD"
PARAMETERVALUE="250"

[PARAM2]
PARAMETERNAME="BOOT_SW_ID"
PARAMETERVALUE="NA654321"
`)
		input.ConfigReferenceINI = []byte(`[PARAM1]
PARAMETERNAME="CAN_BAUD"
PARAMETERVALUE="500"

[PARAM2]
PARAMETERNAME="BOOT_SW_ID"
PARAMETERVALUE="stale"
`)

		run, err := s.service.Evaluate(s.ctx(), input)
		s.Require().NoError(err)

		var mismatch *Finding
		for i, f := range run.Result.Findings {
			if f.Section == SectionIni && f.Kind == FindingMismatch {
				s.Require().Nil(mismatch, "expected a single configuration mismatch")
				mismatch = &run.Result.Findings[i]
			}
		}
		s.Require().NotNil(mismatch)
		s.Equal("CAN_BAUD", mismatch.Name)
		s.Equal("500", mismatch.Expected)
		s.Equal("250", mismatch.Actual)
		s.False(run.Conformant)

		// BOOT_SW_ID is pinned to the bill of material on the reference
		// side, so the extraction that matches the BOM row passes even
		// when the reference file carries a stale value.
		for _, r := range run.Result.ParameterRows {
			if r.Name == "BOOT_SW_ID" {
				s.Equal("NA654321", r.Expected)
				s.True(r.Conformant)
			}
		}
	})

	s.Run("configuration extraction without a reference is rejected", func() {
		s.SetupTest()
		input := s.conformingRadarInput()
		input.ConfigINI = []byte("[PARAM1]\nPARAMETERNAME=\"CAN_BAUD\"\nPARAMETERVALUE=\"500\"\n")

		_, err := s.service.Evaluate(s.ctx(), input)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("schedule engine runs when a root row is present", func() {
		s.SetupTest()
		input := s.conformingRadarInput()
		input.Root = &StructuralElement{ID: "K123456X001", Title: "FLR-25 Radar Assembly", Description: "BX123456 AUTOBAUD"}
		input.Schedule = map[string]string{"PART NUMBER": "K123456X001"}

		run, err := s.service.Evaluate(s.ctx(), input)
		s.Require().NoError(err)
		s.Require().Len(run.Result.ScheduleRows, 1)
		s.Equal(ScheduleCorrect, run.Result.ScheduleRows[0].Result)
	})
}

func (s *ServiceSuite) TestGetRun() {
	s.Run("cache hit skips the store", func() {
		s.SetupTest()
		run := &Run{ID: id.NewRunID(), PartNumber: "K123456X001"}
		s.cache.entries[run.ID] = run

		got, err := s.service.GetRun(s.ctx(), run.ID)
		s.Require().NoError(err)
		s.Equal(run.ID, got.ID)
		s.Equal(string(audit.EventRunViewed), s.audit.lastAction())
	})

	s.Run("cache miss reads through and backfills", func() {
		s.SetupTest()
		run := &Run{ID: id.NewRunID(), PartNumber: "K123456X001"}
		s.Require().NoError(s.store.SaveRun(context.Background(), run))

		got, err := s.service.GetRun(s.ctx(), run.ID)
		s.Require().NoError(err)
		s.Equal(run.ID, got.ID)
		s.Equal(1, s.cache.sets)
	})

	s.Run("unknown run is not found", func() {
		s.SetupTest()
		_, err := s.service.GetRun(s.ctx(), id.NewRunID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListRuns() {
	s.Run("requires a part number", func() {
		s.SetupTest()
		_, err := s.service.ListRuns(s.ctx(), "", 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("returns stored runs and records access", func() {
		s.SetupTest()
		run := &Run{ID: id.NewRunID(), PartNumber: "K123456X001"}
		s.Require().NoError(s.store.SaveRun(context.Background(), run))

		runs, err := s.service.ListRuns(s.ctx(), "K123456X001", 0)
		s.Require().NoError(err)
		s.Len(runs, 1)
		s.Equal(string(audit.EventRunsListed), s.audit.lastAction())
	})
}
