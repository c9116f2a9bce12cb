package compliance

import "strings"

// CompareParameters diffs observed configuration attributes against the
// profile's parameter requirements. Row order follows the requirement table.
// Equality rules with multiple alternatives (Device Code) accept any listed
// value; presence rules only require a non-blank actual.
func CompareParameters(profile RequirementProfile, observed map[string]string) ([]ParameterRow, []Finding) {
	if len(profile.Parameters) == 0 {
		return nil, nil
	}

	rows := make([]ParameterRow, 0, len(profile.Parameters))
	var findings []Finding
	for _, req := range profile.Parameters {
		actual := strings.TrimSpace(observed[req.Name])
		row := ParameterRow{
			Name:       req.Name,
			Expected:   req.ExpectedDisplay(),
			Actual:     actual,
			Equal:      !req.NonBlank,
			Conformant: req.satisfiedBy(actual),
		}
		rows = append(rows, row)
		if row.Conformant {
			continue
		}
		if actual == "" {
			findings = append(findings, Finding{
				Kind:     FindingMissing,
				Section:  SectionParameters,
				Name:     req.Name,
				Detail:   "attribute has no value",
				Expected: row.Expected,
			})
			continue
		}
		findings = append(findings, Finding{
			Kind:     FindingMismatch,
			Section:  SectionParameters,
			Name:     req.Name,
			Expected: row.Expected,
			Actual:   actual,
		})
	}
	return rows, findings
}

func (p ParameterRequirement) satisfiedBy(actual string) bool {
	if p.NonBlank {
		return actual != ""
	}
	for _, want := range p.Expected {
		if actual == want {
			return true
		}
	}
	return false
}

// NamedValue is one ordered key/value pair from a configuration source.
type NamedValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompareConfigurationValues diffs an observed parameter map against an
// ordered reference list, the comparison used for extracted firmware
// configuration files. Only names present on both sides are compared;
// reference names absent from the observation are reported missing.
func CompareConfigurationValues(reference []NamedValue, observed map[string]string) ([]ParameterRow, []Finding) {
	var rows []ParameterRow
	var findings []Finding
	for _, ref := range reference {
		actual, ok := observed[ref.Name]
		if !ok {
			findings = append(findings, Finding{
				Kind:     FindingMissing,
				Section:  SectionIni,
				Name:     ref.Name,
				Detail:   "parameter not present in configuration file",
				Expected: ref.Value,
			})
			continue
		}
		row := ParameterRow{
			Name:       ref.Name,
			Expected:   ref.Value,
			Actual:     actual,
			Equal:      true,
			Conformant: actual == ref.Value,
		}
		rows = append(rows, row)
		if !row.Conformant {
			findings = append(findings, Finding{
				Kind:     FindingMismatch,
				Section:  SectionIni,
				Name:     ref.Name,
				Expected: ref.Value,
				Actual:   actual,
			})
		}
	}
	return rows, findings
}
