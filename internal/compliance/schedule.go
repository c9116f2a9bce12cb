package compliance

import (
	"regexp"
	"strings"
)

// Production schedule keys recognised by the cross-check. Keys outside this
// list are ignored.
const (
	scheduleKeyPartNumber       = "PART NUMBER"
	scheduleKeyRadarPart        = "RADAR PART NUMBER"
	scheduleKeySWPart           = "SW PART NUMBER"
	scheduleKeySWVersion        = "SW VERSION"
	scheduleKeyConfigIniDataSet = "CONFIG INI DATA SET"
	scheduleKeyProductIDLabel   = "PRODUCT ID LABEL PART NUMBER"
	scheduleKeyPartNumberLabel  = "PART NUMBER LABEL"
	scheduleKeyCover            = "COVER"
	scheduleKeyJumperHarness    = "JUMPER HARNESS"
	scheduleKeyBootSoftware     = "BOOT SOFTWARE PART NUMBER"
	scheduleKeyMainSoftware     = "MAIN SOFTWARE PART NUMBER"
	scheduleKeyServiceLabel     = "SERVICE LABEL"
	scheduleKeyRemanCamera      = "REMAN CAMERA PART NUMBER"
	scheduleKeyRemanLabel       = "REMAN LABEL"
	scheduleKeyLabel            = "LABEL"
	scheduleKeyBracket          = "BRACKET"
	scheduleKeyCameraPart       = "CAMERA PART NUMBER"
)

// scheduleKeyOrder fixes the row order of the cross-check output. The source
// schedule arrives as an unordered map, so a canonical order keeps reports
// deterministic.
var scheduleKeyOrder = []string{
	scheduleKeyPartNumber,
	scheduleKeyRadarPart,
	scheduleKeySWPart,
	scheduleKeySWVersion,
	scheduleKeyConfigIniDataSet,
	scheduleKeyProductIDLabel,
	scheduleKeyPartNumberLabel,
	scheduleKeyCover,
	scheduleKeyJumperHarness,
	scheduleKeyBootSoftware,
	scheduleKeyMainSoftware,
	scheduleKeyServiceLabel,
	scheduleKeyRemanCamera,
	scheduleKeyRemanLabel,
	scheduleKeyLabel,
	scheduleKeyBracket,
	scheduleKeyCameraPart,
}

// identifierValueKeys are the keys whose values must look like part
// identifiers for the comparison to apply at all.
var identifierValueKeys = map[string]bool{
	scheduleKeyRadarPart:        true,
	scheduleKeySWPart:           true,
	scheduleKeyConfigIniDataSet: true,
	scheduleKeyJumperHarness:    true,
	scheduleKeyProductIDLabel:   true,
	scheduleKeyPartNumberLabel:  true,
	scheduleKeyBootSoftware:     true,
	scheduleKeyMainSoftware:     true,
	scheduleKeyServiceLabel:     true,
	scheduleKeyRemanCamera:      true,
	scheduleKeyRemanLabel:       true,
	scheduleKeyLabel:            true,
	scheduleKeyBracket:          true,
	scheduleKeyCameraPart:       true,
}

var (
	schedulePartIDPattern    = regexp.MustCompile(`^K\d+`)
	scheduleSWVersionPattern = regexp.MustCompile(`^(BX(\d+))(.*)`)
)

// CrossCheckSchedule verifies production schedule values against the BOM: the
// root element and its child rows. Keys the check does not recognise are
// skipped; values that opt out ("NO") or do not carry a part identifier where
// one is expected are reported as not applicable. Incorrect rows additionally
// surface as mismatch findings.
func CrossCheckSchedule(schedule map[string]string, root StructuralElement, elements []StructuralElement) ([]ScheduleRow, []Finding) {
	var rows []ScheduleRow
	var findings []Finding

	for _, key := range scheduleKeyOrder {
		value, ok := schedule[key]
		if !ok {
			continue
		}

		result := ScheduleIncorrect
		if scheduleValueInBOM(key, value, root, elements) {
			result = ScheduleCorrect
		}
		if strings.ToUpper(value) == "NO" {
			result = ScheduleNotApplicable
		}
		if identifierValueKeys[key] && !schedulePartIDPattern.MatchString(value) {
			result = ScheduleNotApplicable
		}

		rows = append(rows, ScheduleRow{Key: key, Value: value, Result: result})
		if result == ScheduleIncorrect {
			findings = append(findings, Finding{
				Kind:    FindingMismatch,
				Section: SectionSchedule,
				Name:    key,
				Detail:  "schedule value not confirmed by the BOM",
				Actual:  value,
			})
		}
	}
	return rows, findings
}

func scheduleValueInBOM(key, value string, root StructuralElement, elements []StructuralElement) bool {
	idAndTitle := func(keyword string) bool {
		for _, e := range elements {
			if value == e.ID && strings.Contains(strings.ToLower(e.Title), keyword) {
				return true
			}
		}
		return false
	}

	switch key {
	case scheduleKeyPartNumber:
		return value == root.ID
	case scheduleKeyRadarPart:
		return idAndTitle("radar")
	case scheduleKeySWPart:
		return idAndTitle("software")
	case scheduleKeySWVersion:
		return scheduleSWVersionMatches(value, root.Description)
	case scheduleKeyConfigIniDataSet:
		for _, e := range elements {
			desc := strings.ToLower(e.Description)
			if value == e.ID && (strings.Contains(desc, "dataset") || strings.Contains(desc, "data set")) {
				return true
			}
		}
		return false
	case scheduleKeyProductIDLabel, scheduleKeyPartNumberLabel, scheduleKeyLabel, scheduleKeyRemanLabel:
		return idAndTitle("label")
	case scheduleKeyJumperHarness:
		return scheduleAccessoryMatches(value, "harness", elements)
	case scheduleKeyCover:
		return scheduleAccessoryMatches(value, "cover", elements)
	case scheduleKeyBracket:
		return idAndTitle("bracket")
	case scheduleKeyCameraPart, scheduleKeyRemanCamera:
		return idAndTitle("camera")
	case scheduleKeyBootSoftware:
		for _, e := range elements {
			if value == e.ID && strings.Contains(strings.ToLower(e.Title), "software") &&
				strings.Contains(strings.ToLower(e.Description), "boot software") {
				return true
			}
		}
		return false
	case scheduleKeyMainSoftware:
		for _, e := range elements {
			if value == e.ID && strings.Contains(strings.ToLower(e.Title), "software") &&
				!strings.Contains(strings.ToLower(e.Description), "boot software") {
				return true
			}
		}
		return false
	}
	return false
}

// scheduleSWVersionMatches decodes a BX-prefixed software version code: the
// digit run must appear in the root description, and the trailing character
// selects the baud configuration the description must advertise.
func scheduleSWVersionMatches(value, rootDescription string) bool {
	m := scheduleSWVersionPattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	code := strings.ToUpper(m[1])
	suffix := strings.ToUpper(m[3])
	desc := strings.ToUpper(rootDescription)

	switch suffix {
	case "A":
		return strings.Contains(desc, code) && strings.Contains(desc, "AUTOBAUD")
	case "H":
		return strings.Contains(desc, code) && !strings.Contains(desc, "AUTOBAUD") && strings.Contains(desc, "500K")
	case "L":
		return strings.Contains(desc, code) && !strings.Contains(desc, "AUTOBAUD") && strings.Contains(desc, "250K")
	}
	return false
}

// scheduleAccessoryMatches handles the harness and cover keys, which accept a
// bare "YES" in place of a part identifier.
func scheduleAccessoryMatches(value, keyword string, elements []StructuralElement) bool {
	if value == "YES" {
		for _, e := range elements {
			if strings.Contains(strings.ToLower(e.Title), keyword) {
				return true
			}
		}
		return false
	}
	if !schedulePartIDPattern.MatchString(value) {
		return false
	}
	for _, e := range elements {
		if value == e.ID && strings.Contains(strings.ToLower(e.Title), keyword) {
			return true
		}
	}
	return false
}
