package handler

import (
	"strings"

	"conforma/internal/compliance"
	dErrors "conforma/pkg/domain-errors"
)

const (
	maxElements    = 5000
	maxDocuments   = 1000
	maxParameters  = 500
	maxConfigBytes = 8 << 20
)

// EvaluateRequest is the HTTP request body for POST /compliance/evaluate.
type EvaluateRequest struct {
	Part      PartRequest             `json:"part"`
	Elements  []ElementRequest        `json:"elements"`
	Root      *ElementRequest         `json:"root,omitempty"`
	Documents []DocumentRequest       `json:"documents"`
	// AftermarketDocuments switches the document engine to the reduced
	// aftermarket check for the listed titles.
	AftermarketDocuments []DocumentRequest `json:"aftermarket_documents,omitempty"`
	Parameters           map[string]string `json:"parameters"`
	Schedule             map[string]string `json:"schedule,omitempty"`

	// ConfigArchive is a base64 zip of extracted .ini exports; ConfigINI a
	// single base64 raw export. At most one may be set, and either requires
	// ConfigReferenceINI, the released file the extraction is diffed against.
	ConfigArchive      []byte `json:"config_archive,omitempty"`
	ConfigINI          []byte `json:"config_ini,omitempty"`
	ConfigReferenceINI []byte `json:"config_reference_ini,omitempty"`

	// Parsed values (populated by Validate)
	parsedFamily compliance.Family
}

// PartRequest identifies the part under review.
type PartRequest struct {
	PartNumber  string `json:"part_number"`
	Title       string `json:"title"`
	Family      string `json:"family"`
	Bracket     bool   `json:"bracket"`
	Resistor    bool   `json:"resistor"`
	Aftermarket bool   `json:"aftermarket"`
}

// ElementRequest is one BOM row.
type ElementRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
}

// DocumentRequest is one engineering document record.
type DocumentRequest struct {
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Lifecycle string `json:"lifecycle_state"`
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.Elements) > maxElements {
		return dErrors.Newf(dErrors.CodeValidation, "elements must hold at most %d rows", maxElements)
	}
	if len(r.Documents) > maxDocuments || len(r.AftermarketDocuments) > maxDocuments {
		return dErrors.Newf(dErrors.CodeValidation, "documents must hold at most %d records", maxDocuments)
	}
	if len(r.Parameters) > maxParameters {
		return dErrors.Newf(dErrors.CodeValidation, "parameters must hold at most %d attributes", maxParameters)
	}
	if len(r.ConfigArchive) > maxConfigBytes || len(r.ConfigINI) > maxConfigBytes ||
		len(r.ConfigReferenceINI) > maxConfigBytes {
		return dErrors.New(dErrors.CodeValidation, "configuration payload exceeds the size limit")
	}
	if len(r.ConfigArchive) > 0 && len(r.ConfigINI) > 0 {
		return dErrors.New(dErrors.CodeValidation, "config_archive and config_ini are mutually exclusive")
	}
	hasExtraction := len(r.ConfigArchive) > 0 || len(r.ConfigINI) > 0
	if hasExtraction && len(r.ConfigReferenceINI) == 0 {
		return dErrors.New(dErrors.CodeValidation, "config_reference_ini is required alongside a configuration export")
	}
	if !hasExtraction && len(r.ConfigReferenceINI) > 0 {
		return dErrors.New(dErrors.CodeValidation, "config_reference_ini requires config_archive or config_ini")
	}

	// Required fields
	r.Part.PartNumber = strings.TrimSpace(r.Part.PartNumber)
	if r.Part.PartNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "part.part_number is required")
	}
	r.Part.Title = strings.TrimSpace(r.Part.Title)
	if r.Part.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "part.title is required")
	}

	family, err := compliance.ParseFamily(strings.TrimSpace(r.Part.Family))
	if err != nil {
		return err
	}
	r.parsedFamily = family

	return nil
}

// ToInput converts the validated request into the service input.
func (r *EvaluateRequest) ToInput() compliance.EvaluateInput {
	input := compliance.EvaluateInput{
		Product: compliance.ProductContext{
			PartNumber: r.Part.PartNumber,
			Title:      r.Part.Title,
			Family:     r.parsedFamily,
			Options: compliance.Options{
				Bracket:     r.Part.Bracket,
				Resistor:    r.Part.Resistor,
				Aftermarket: r.Part.Aftermarket,
			},
		},
		Elements:           toElements(r.Elements),
		Documents:          toDocuments(r.Documents),
		Parameters:         r.Parameters,
		Schedule:           r.Schedule,
		ConfigArchive:      r.ConfigArchive,
		ConfigINI:          r.ConfigINI,
		ConfigReferenceINI: r.ConfigReferenceINI,
	}
	if r.Root != nil {
		root := toElement(*r.Root)
		input.Root = &root
	}
	if len(r.AftermarketDocuments) > 0 {
		input.AftermarketDocuments = toDocuments(r.AftermarketDocuments)
	}
	return input
}

func toElement(e ElementRequest) compliance.StructuralElement {
	return compliance.StructuralElement{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Quantity:    e.Quantity,
	}
}

func toElements(reqs []ElementRequest) []compliance.StructuralElement {
	if len(reqs) == 0 {
		return nil
	}
	elements := make([]compliance.StructuralElement, len(reqs))
	for i, e := range reqs {
		elements[i] = toElement(e)
	}
	return elements
}

func toDocuments(reqs []DocumentRequest) []compliance.DocumentRecord {
	if len(reqs) == 0 {
		return nil
	}
	docs := make([]compliance.DocumentRecord, len(reqs))
	for i, d := range reqs {
		docs[i] = compliance.DocumentRecord{
			Title:     d.Title,
			Kind:      d.Kind,
			Lifecycle: compliance.Lifecycle(d.Lifecycle),
		}
	}
	return docs
}
