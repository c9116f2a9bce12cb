package compliance

// FindingKind distinguishes the severity classes of reconciliation output.
// Missing and Mismatch are hard findings and flip the run verdict; Present and
// Advisory never do.
type FindingKind string

const (
	FindingMissing  FindingKind = "missing"
	FindingMismatch FindingKind = "mismatch"
	FindingPresent  FindingKind = "present"
	FindingAdvisory FindingKind = "advisory"
)

// Hard reports whether the finding kind affects the conformance verdict.
func (k FindingKind) Hard() bool {
	return k == FindingMissing || k == FindingMismatch
}

// Finding is one reconciliation outcome line. Name identifies the requirement
// or observed row it refers to; Expected and Actual are populated for
// mismatches only.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Section  string      `json:"section"`
	Name     string      `json:"name"`
	Detail   string      `json:"detail,omitempty"`
	Expected string      `json:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty"`
}

// Sections findings are attributed to.
const (
	SectionStructure   = "structure"
	SectionDocuments   = "documents"
	SectionParameters  = "parameters"
	SectionSchedule    = "schedule"
	SectionIni         = "ini"
	SectionAftermarket = "aftermarket"
)

// findingSet is an ordered, name-keyed collection of missing-element entries.
// Correction passes append, remove, and rename entries; insertion order is
// preserved so output is deterministic for identical input.
type findingSet struct {
	order []string
	seen  map[string]int
}

func newFindingSet() *findingSet {
	return &findingSet{seen: map[string]int{}}
}

// Append adds name to the set. Appending an already-present name adds a
// second entry, matching the duplicate-tolerant accumulation the correction
// rules rely on.
func (s *findingSet) Append(name string) {
	s.order = append(s.order, name)
	s.seen[name]++
}

// Remove deletes the first entry with the given name, if any.
func (s *findingSet) Remove(name string) {
	if s.seen[name] == 0 {
		return
	}
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.seen[name]--
	if s.seen[name] == 0 {
		delete(s.seen, name)
	}
}

// Rename replaces the first entry named old with new, in place.
func (s *findingSet) Rename(old, new string) {
	if s.seen[old] == 0 {
		return
	}
	for i, n := range s.order {
		if n == old {
			s.order[i] = new
			break
		}
	}
	s.seen[old]--
	if s.seen[old] == 0 {
		delete(s.seen, old)
	}
	s.seen[new]++
}

// Contains reports whether at least one entry carries the given name.
func (s *findingSet) Contains(name string) bool {
	return s.seen[name] > 0
}

// Names returns the entries in insertion order.
func (s *findingSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// StructuralRow is one line of the quantity tabulation: an observed BOM row
// matched against a required element, with expected and observed counts.
type StructuralRow struct {
	Element     string `json:"element"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
	Expected    int    `json:"expected"`
}

// Conformant reports whether the observed count satisfies the requirement.
func (r StructuralRow) Conformant() bool { return r.Quantity == r.Expected }

// ParameterRow is one line of the configuration attribute comparison.
type ParameterRow struct {
	Name     string `json:"name"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	// Equal indicates the comparison mode: literal equality when true,
	// non-blank presence when false.
	Equal      bool `json:"equal"`
	Conformant bool `json:"conformant"`
}

// ScheduleComparison is the verdict for one schedule cross-check row.
type ScheduleComparison string

const (
	ScheduleCorrect       ScheduleComparison = "Correct"
	ScheduleIncorrect     ScheduleComparison = "Incorrect"
	ScheduleNotApplicable ScheduleComparison = "--------"
)

// ScheduleRow is one line of the production schedule cross-check.
type ScheduleRow struct {
	Key    string             `json:"key"`
	Value  string             `json:"value"`
	Result ScheduleComparison `json:"result"`
}

// DiagnosticResult aggregates the output of every engine that ran for a
// single part record.
type DiagnosticResult struct {
	Findings       []Finding       `json:"findings"`
	StructuralRows []StructuralRow `json:"structural_rows,omitempty"`
	ParameterRows  []ParameterRow  `json:"parameter_rows,omitempty"`
	ScheduleRows   []ScheduleRow   `json:"schedule_rows,omitempty"`

	// NoRuleDefined is set when classification succeeded but the catalog
	// holds no requirement profile for the resolved key. It is reported
	// distinctly and never counts as conformance.
	NoRuleDefined bool `json:"no_rule_defined,omitempty"`
}

// Conformant reports the overall verdict: a requirement profile existed and
// produced no hard findings.
func (r DiagnosticResult) Conformant() bool {
	if r.NoRuleDefined {
		return false
	}
	for _, f := range r.Findings {
		if f.Kind.Hard() {
			return false
		}
	}
	return true
}

// HardFindingCount returns the number of verdict-affecting findings.
func (r DiagnosticResult) HardFindingCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind.Hard() {
			n++
		}
	}
	return n
}
