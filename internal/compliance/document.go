package compliance

import (
	"fmt"
	"strings"
)

// ReconcileDocuments diffs observed engineering documents against the
// profile's document requirements. Required kinds produce one present finding
// per matching record or a missing finding; optional kinds degrade to
// advisories. Assembly Drawing is split into its Schedule and CAD subtypes,
// and Service Data is checked per target market language.
func ReconcileDocuments(cls Classification, profile RequirementProfile, docs []DocumentRecord) []Finding {
	var findings []Finding

	if profile.NoDocumentsRequired {
		return []Finding{{
			Kind:    FindingAdvisory,
			Section: SectionDocuments,
			Name:    "Documents",
			Detail:  "No documents are required for this part.",
		}}
	}
	if len(profile.Documents) == 0 {
		return nil
	}

	requiredKinds := make(map[string]bool, len(profile.Documents))
	for _, req := range profile.Documents {
		requiredKinds[req.Kind] = true
	}
	matching := make([]DocumentRecord, 0, len(docs))
	for _, d := range docs {
		if requiredKinds[d.Kind] && d.Lifecycle.Acceptable() {
			matching = append(matching, d)
		}
	}

	missing := newFindingSet()
	optionalKinds := map[string]bool{}

	langs := serviceDataLanguages(cls.Family)
	missingLangs := make(map[string]bool, len(langs))
	for _, l := range langs {
		missingLangs[l] = true
	}

	for _, req := range profile.Documents {
		if req.Optional {
			optionalKinds[req.Kind] = true
		}

		exists := false
		for _, d := range matching {
			if d.Kind != req.Kind {
				continue
			}
			exists = true
			findings = append(findings, Finding{
				Kind:    FindingPresent,
				Section: SectionDocuments,
				Name:    d.Title,
				Detail:  fmt.Sprintf("%s, %s", d.Kind, d.Lifecycle),
			})
			if req.Kind == "Service Data" {
				markCoveredLanguages(missingLangs, d.Title)
			}
		}

		if req.Kind == "Assembly Drawing" {
			reconcileAssemblyDrawing(missing, matching)
			continue
		}
		if !exists {
			missing.Append(req.Kind)
		}
	}

	if !cls.Family.IsBracket() && !cls.Family.IsCover() {
		for _, lang := range langs {
			if missingLangs[lang] {
				missing.Remove("Service Data")
				missing.Append("Service Data - " + lang)
			}
		}
	}

	if cls.Family == FamilyFLC25Bracket {
		missing.Rename("Process Data Sheet", "Process Data Sheet (BWs)")
	}

	names := missing.Names()
	serviceDataMissing := false
	for _, name := range names {
		if strings.Contains(name, "Service Data") {
			serviceDataMissing = true
		}
		kind := FindingMissing
		if isOptionalMiss(name, optionalKinds) {
			kind = FindingAdvisory
		}
		f := Finding{Kind: kind, Section: SectionDocuments, Name: name}
		if kind == FindingAdvisory {
			f.Detail = fmt.Sprintf("Please validate if the '%s' document is required.", name)
		}
		findings = append(findings, f)
	}

	if serviceDataMissing && !cls.Family.IsBracket() && !cls.Family.IsCover() {
		findings = append(findings, Finding{
			Kind:    FindingAdvisory,
			Section: SectionDocuments,
			Name:    "Service Data",
			Detail:  "Please validate if the 'Service Data' document is required.",
		})
	}
	return findings
}

// markCoveredLanguages clears coverage flags using the comma-separated
// language tokens after the first segment of a Service Data title. An EN
// token covers the US market.
func markCoveredLanguages(missingLangs map[string]bool, title string) {
	parts := strings.Split(title, ",")
	if len(parts) < 2 {
		return
	}
	for _, raw := range parts[1:] {
		lang := strings.TrimSpace(raw)
		if _, tracked := missingLangs[lang]; tracked {
			missingLangs[lang] = false
		}
		if lang == "EN" {
			if _, tracked := missingLangs["US"]; tracked {
				missingLangs["US"] = false
			}
		}
	}
}

// reconcileAssemblyDrawing checks the two Assembly Drawing subtypes. The
// Schedule subtype is identified by a "schedule" token in the document title;
// every other matching record counts as the CAD subtype.
func reconcileAssemblyDrawing(missing *findingSet, matching []DocumentRecord) {
	total, schedules := 0, 0
	for _, d := range matching {
		if d.Kind != "Assembly Drawing" {
			continue
		}
		total++
		if strings.Contains(strings.ToLower(d.Title), "schedule") {
			schedules++
		}
	}
	switch {
	case total == 0:
		missing.Append("Assembly Drawing Schedule")
		missing.Append("Assembly Drawing CAD")
	case schedules == 0:
		missing.Append("Assembly Drawing Schedule")
	case schedules == total:
		missing.Append("Assembly Drawing CAD")
	}
}

// isOptionalMiss reports whether a missing-document label originates from an
// optional requirement, surviving label rewrites such as the Process Data
// Sheet rename.
func isOptionalMiss(name string, optionalKinds map[string]bool) bool {
	for kind := range optionalKinds {
		if strings.Contains(name, kind) {
			return true
		}
	}
	return false
}

// ValidateAftermarketDocuments checks the aftermarket document set for a
// record whose title carries the classified element kind.
func ValidateAftermarketDocuments(cls Classification, docs []DocumentRecord) []Finding {
	var findings []Finding
	elem := cls.Kind.String()

	found := false
	for _, d := range docs {
		if !d.Lifecycle.Acceptable() {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title), strings.ToLower(elem)) {
			found = true
			findings = append(findings, Finding{
				Kind:    FindingPresent,
				Section: SectionAftermarket,
				Name:    d.Title,
				Detail:  string(d.Lifecycle),
			})
		}
	}
	if !found {
		findings = append(findings, Finding{
			Kind:    FindingMissing,
			Section: SectionAftermarket,
			Name:    elem,
			Detail:  "no aftermarket document references the element",
		})
	}
	return findings
}
