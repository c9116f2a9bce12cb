package compliance

// ReferenceIDs are the exact part identifiers the correction rules pin
// certain requirements to. They are configuration, not code, because the
// identifiers rotate when parts are superseded.
type ReferenceIDs struct {
	CANTerminationWith string
	CANTerminationWo   string
	Camera             string
}

// DefaultReferenceIDs returns the identifiers in production use today.
func DefaultReferenceIDs() ReferenceIDs {
	return ReferenceIDs{
		CANTerminationWith: "K218450H002",
		CANTerminationWo:   "K188333H002",
		Camera:             "K188332H000",
	}
}

// ElementRequirement is one required BOM element.
type ElementRequirement struct {
	Name string
	// Quantity is the expected per-row count for matching BOM rows.
	Quantity int
	// MatchDescription marks pseudo-elements (CAN termination variants) that
	// are detected in row descriptions, case-insensitively, rather than in
	// row titles.
	MatchDescription bool
}

// DocumentRequirement is one required document kind. Optional kinds are
// reported as advisories when absent and never affect the verdict.
type DocumentRequirement struct {
	Kind     string
	Optional bool
}

// ParameterRequirement is one required configuration attribute.
type ParameterRequirement struct {
	Name string
	// Expected holds the acceptable literal values. Only the Device Code
	// attribute carries more than one alternative.
	Expected []string
	// NonBlank switches the comparison from literal equality to a
	// presence check.
	NonBlank bool
}

// RequirementProfile is everything the catalog requires of one
// classification.
type RequirementProfile struct {
	Elements   []ElementRequirement
	Documents  []DocumentRequirement
	Parameters []ParameterRequirement

	// NoDocumentsRequired short-circuits the document engine with an
	// explicit verdict, distinct from an empty requirement list.
	NoDocumentsRequired bool
}

// Empty reports whether the profile requires nothing at all.
func (p RequirementProfile) Empty() bool {
	return len(p.Elements) == 0 && len(p.Documents) == 0 &&
		len(p.Parameters) == 0 && !p.NoDocumentsRequired
}

// Catalog derives requirement profiles from classifications. Profiles are
// built per lookup because several requirements depend on option flags and
// on the part identifier itself.
type Catalog struct {
	refs ReferenceIDs
}

// NewCatalog builds a catalog around the given reference identifiers.
func NewCatalog(refs ReferenceIDs) *Catalog {
	return &Catalog{refs: refs}
}

// References exposes the identifiers the correction rules compare against.
func (c *Catalog) References() ReferenceIDs { return c.refs }

// Lookup resolves the requirement profile for a classification. The second
// return is false when the catalog defines no rules at all for the key, which
// callers must report as a distinct outcome rather than as conformance.
func (c *Catalog) Lookup(cls Classification) (RequirementProfile, bool) {
	p := RequirementProfile{}
	p.Elements = requiredElements(cls)
	p.Documents, p.NoDocumentsRequired = requiredDocuments(cls)
	p.Parameters = requiredParameters(cls)
	return p, !p.Empty()
}
