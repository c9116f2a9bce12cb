package compliance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	radarVersionPattern  = regexp.MustCompile(`VER FU\d{6}`)
	cameraVersionPattern = regexp.MustCompile(`NA\d{6}`)
	legacyVersionPattern = regexp.MustCompile(`BX\d{6}`)
)

// StructuralOutcome is the structural engine's contribution to a run: one
// finding per required element plus the quantity tabulation rows.
type StructuralOutcome struct {
	Findings []Finding
	Rows     []StructuralRow
}

// ReconcileStructure diffs observed BOM rows against the profile's element
// requirements. The first pass collects plainly absent elements; a second,
// classification-specific pass corrects the list using row descriptions
// (bundled datasets, boot software, version markers, pinned CAN termination
// and camera identifiers). Every required element surfaces exactly once, as
// present, missing, or quantity mismatch.
func ReconcileStructure(cls Classification, profile RequirementProfile, elements []StructuralElement, refs ReferenceIDs) StructuralOutcome {
	var out StructuralOutcome
	if len(profile.Elements) == 0 {
		return out
	}

	missing := newFindingSet()
	for _, req := range profile.Elements {
		if !elementPresent(req, elements) {
			missing.Append(req.Name)
		}
	}

	if cls.Family.IsLegacy() {
		out.Findings = append(out.Findings, legacyCorrections(cls, missing, elements)...)
	} else {
		switch cls.Kind {
		case KindRadar:
			radarCorrections(cls, missing, elements, refs)
		case KindCamera:
			cameraCorrections(missing, elements, refs)
		case KindBracket:
			if cls.Family == FamilyFLC25Bracket {
				bracketCorrections(missing, elements)
			}
		}
	}

	rows, rowFindings := tabulateQuantities(cls, profile, elements)
	out.Rows = rows

	names := missing.Names()
	missingSeen := make(map[string]bool, len(names))
	for _, name := range names {
		missingSeen[name] = true
		out.Findings = append(out.Findings, Finding{
			Kind:    FindingMissing,
			Section: SectionStructure,
			Name:    name,
		})
	}
	for _, req := range profile.Elements {
		display := presentDisplayName(req.Name, refs)
		if missingSeen[req.Name] || missingSeen[display] || missingSeen[missingDisplayName(req.Name, refs)] {
			continue
		}
		out.Findings = append(out.Findings, Finding{
			Kind:    FindingPresent,
			Section: SectionStructure,
			Name:    display,
		})
	}
	out.Findings = append(out.Findings, rowFindings...)

	// The advisory accompanies the success verdict only; a run with missing
	// elements already fails and the reminder would be noise.
	if cls.Variant == VariantSC && !cls.Family.IsLegacy() && len(names) == 0 {
		out.Findings = append(out.Findings, Finding{
			Kind:    FindingAdvisory,
			Section: SectionStructure,
			Name:    "Screw",
			Detail:  "If the customer is Paccar, ensure that the 'Screw' element is present with a quantity of 3.",
		})
	}
	return out
}

// elementPresent applies the first-pass match rule: a case-sensitive title
// substring, except for CAN pseudo-elements which are matched
// case-insensitively in row descriptions.
func elementPresent(req ElementRequirement, elements []StructuralElement) bool {
	for _, e := range elements {
		if req.MatchDescription {
			if strings.Contains(strings.ToLower(e.Description), strings.ToLower(req.Name)) {
				return true
			}
			continue
		}
		if strings.Contains(e.Title, req.Name) {
			return true
		}
	}
	return false
}

// removeDatasetIfBundled drops a Dataset miss when at least two software rows
// exist and one of them carries a dataset marker in its description.
func removeDatasetIfBundled(missing *findingSet, elements []StructuralElement) {
	if !missing.Contains("Dataset") {
		return
	}
	softwareRows := 0
	bundled := false
	for _, e := range elements {
		if !strings.Contains(strings.ToLower(e.Title), "software") {
			continue
		}
		softwareRows++
		desc := strings.ToUpper(e.Description)
		if strings.Contains(desc, "DATASET") || strings.Contains(desc, "DATA SET") {
			bundled = true
		}
	}
	if softwareRows >= 2 && bundled {
		missing.Remove("Dataset")
	}
}

// reconcileBootSoftware resolves the Boot Software requirement against the
// given description keyword. Absence always appends a miss, even when the
// first pass already recorded one; the duplicate signals that neither the
// title nor the description carried the marker.
func reconcileBootSoftware(missing *findingSet, elements []StructuralElement, keyword string) {
	found := false
	for _, e := range elements {
		if strings.Contains(strings.ToLower(e.Title), "software") &&
			strings.Contains(strings.ToLower(e.Description), keyword) {
			found = true
			break
		}
	}
	if !found {
		missing.Append("Boot Software")
		return
	}
	missing.Remove("Boot Software")
}

// reconcileSoftwareVersion flags the Software requirement when no
// non-boot software row carries a version marker.
func reconcileSoftwareVersion(missing *findingSet, elements []StructuralElement, pattern *regexp.Regexp) {
	found := false
	for _, e := range elements {
		if strings.Contains(strings.ToLower(e.Description), "boot software") {
			continue
		}
		if strings.Contains(strings.ToLower(e.Title), "software") && pattern.MatchString(e.Description) {
			found = true
			break
		}
	}
	if !found && !missing.Contains("Software") {
		missing.Append("Software")
	}
}

func radarCorrections(cls Classification, missing *findingSet, elements []StructuralElement, refs ReferenceIDs) {
	switch cls.Variant {
	case VariantR, VariantSC, VariantX:
	default:
		return
	}

	removeDatasetIfBundled(missing, elements)
	reconcileBootSoftware(missing, elements, "boot software")
	reconcileSoftwareVersion(missing, elements, radarVersionPattern)

	if cls.Options.Resistor {
		reconcileCANTermination(missing, elements, elementCANWith,
			fmt.Sprintf("Radar with CAN termination (%s)", refs.CANTerminationWith), refs.CANTerminationWith)
	} else {
		reconcileCANTermination(missing, elements, elementCANWo,
			fmt.Sprintf("Radar without CAN termination (%s)", refs.CANTerminationWo), refs.CANTerminationWo)
	}
}

// reconcileCANTermination replaces the generic CAN pseudo-element with an
// identifier-qualified miss unless a radar row carries both the termination
// keyword and the pinned part identifier.
func reconcileCANTermination(missing *findingSet, elements []StructuralElement, generic, qualified, refID string) {
	keyword := strings.ToLower(generic)
	found := false
	for _, e := range elements {
		if strings.Contains(strings.ToLower(e.Title), "radar") &&
			strings.Contains(strings.ToLower(e.Description), keyword) &&
			strings.EqualFold(e.ID, refID) {
			found = true
			break
		}
	}
	missing.Remove(generic)
	if !found {
		missing.Append(qualified)
	}
}

func cameraCorrections(missing *findingSet, elements []StructuralElement, refs ReferenceIDs) {
	// Variant gating mirrors radarCorrections and is enforced by the caller's
	// profile: camera profiles exist for R, SC, and X only.
	exactCamera := false
	for _, e := range elements {
		if strings.Contains(strings.ToLower(e.Title), "camera") && strings.EqualFold(e.ID, refs.Camera) {
			exactCamera = true
			break
		}
	}
	if !exactCamera {
		qualified := fmt.Sprintf("Camera (%s)", refs.Camera)
		if missing.Contains("Camera") {
			missing.Rename("Camera", qualified)
		} else {
			missing.Append(qualified)
		}
	}

	removeDatasetIfBundled(missing, elements)
	reconcileBootSoftware(missing, elements, "boot")
	reconcileSoftwareVersion(missing, elements, cameraVersionPattern)
}

func bracketCorrections(missing *findingSet, elements []StructuralElement) {
	for _, e := range elements {
		title := strings.ToLower(e.Title)
		if strings.Contains(title, "bracket") && !strings.Contains(title, "assembly") {
			return
		}
	}
	if !missing.Contains("Bracket") {
		missing.Append("Bracket")
	}
}

func legacyCorrections(cls Classification, missing *findingSet, elements []StructuralElement) []Finding {
	var findings []Finding
	if cls.Kind != KindRadar || cls.Variant != VariantR {
		return nil
	}

	removeDatasetIfBundled(missing, elements)

	if !missing.Contains("Software") {
		found := false
		for _, e := range elements {
			if strings.Contains(strings.ToLower(e.Title), "software") &&
				legacyVersionPattern.MatchString(e.Description) {
				found = true
				break
			}
		}
		if !found {
			missing.Append("Software")
		}
	}

	labels := 0
	for _, e := range elements {
		if strings.Contains(strings.ToLower(e.Title), "label") {
			labels++
		}
	}
	if labels != 2 {
		findings = append(findings, Finding{
			Kind:    FindingAdvisory,
			Section: SectionStructure,
			Name:    "Label",
			Detail:  fmt.Sprintf("Consider that there should be 2 'Label' elements, found %d", labels),
		})
	}
	return findings
}

// tabulateQuantities builds the per-row quantity comparison and emits a
// mismatch finding for every row whose count deviates from the requirement.
func tabulateQuantities(cls Classification, profile RequirementProfile, elements []StructuralElement) ([]StructuralRow, []Finding) {
	var rows []StructuralRow
	var findings []Finding

	addRow := func(element string, e StructuralElement, expected int) {
		qty, err := parseQuantity(e.Quantity)
		if err != nil {
			findings = append(findings, Finding{
				Kind:    FindingAdvisory,
				Section: SectionStructure,
				Name:    e.Title,
				Detail:  fmt.Sprintf("unparseable quantity %q treated as 0", e.Quantity),
			})
		}
		rows = append(rows, StructuralRow{
			Element:     element,
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Quantity:    qty,
			Expected:    expected,
		})
	}

	hasCANWith, hasCANWo, hasScrew := false, false, false
	for _, req := range profile.Elements {
		switch req.Name {
		case elementCANWith:
			hasCANWith = true
		case elementCANWo:
			hasCANWo = true
		case "Screw":
			hasScrew = true
		}

		for _, e := range elements {
			if rowMatches(cls, req, e) {
				addRow(req.Name, e, req.Quantity)
			}
		}
	}

	// Rows carrying the opposite CAN termination marker are surfaced so a
	// wrongly fitted resistor variant is visible in the tabulation.
	for _, e := range elements {
		desc := strings.ToLower(e.Description)
		if (hasCANWo && strings.Contains(desc, strings.ToLower(elementCANWith))) ||
			(hasCANWith && strings.Contains(desc, strings.ToLower(elementCANWo))) {
			addRow("CAN termination", e, 1)
		}
	}

	if cls.Variant == VariantSC && !cls.Family.IsLegacy() && !hasScrew {
		for _, e := range elements {
			if strings.Contains(strings.ToLower(e.Title), "screw") {
				addRow("Screw", e, 3)
				break
			}
		}
	}

	for _, r := range rows {
		if !r.Conformant() {
			findings = append(findings, Finding{
				Kind:     FindingMismatch,
				Section:  SectionStructure,
				Name:     r.Title,
				Detail:   fmt.Sprintf("quantity mismatch for element %q", r.Element),
				Expected: strconv.Itoa(r.Expected),
				Actual:   strconv.Itoa(r.Quantity),
			})
		}
	}
	return rows, findings
}

func rowMatches(cls Classification, req ElementRequirement, e StructuralElement) bool {
	if cls.Family == FamilyFLC25Bracket && req.Name == "Bracket" {
		title := strings.ToLower(e.Title)
		return strings.Contains(title, "bracket") && !strings.Contains(title, "assembly")
	}
	if strings.Contains(e.Title, req.Name) {
		return true
	}
	return req.MatchDescription &&
		strings.Contains(strings.ToLower(e.Description), strings.ToLower(req.Name))
}

// parseQuantity converts the decimal-encoded source quantity to a whole
// count, truncating fractions. Malformed values degrade to zero.
func parseQuantity(raw string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// presentDisplayName maps requirement names onto the identifier-qualified
// labels the report uses for elements that resolved as present.
func presentDisplayName(name string, refs ReferenceIDs) string {
	switch name {
	case elementCANWo:
		return fmt.Sprintf("Radar wo CAN termination (%s)", refs.CANTerminationWo)
	case elementCANWith:
		return fmt.Sprintf("Radar with CAN termination (%s)", refs.CANTerminationWith)
	case "Camera":
		return fmt.Sprintf("Camera (%s)", refs.Camera)
	default:
		return name
	}
}

// missingDisplayName maps requirement names onto the labels the correction
// pass substitutes for absent elements.
func missingDisplayName(name string, refs ReferenceIDs) string {
	if name == elementCANWo {
		return fmt.Sprintf("Radar without CAN termination (%s)", refs.CANTerminationWo)
	}
	return presentDisplayName(name, refs)
}
