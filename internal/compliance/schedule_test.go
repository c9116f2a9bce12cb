package compliance

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ScheduleSuite struct {
	suite.Suite
	root     StructuralElement
	elements []StructuralElement
}

func (s *ScheduleSuite) SetupTest() {
	s.root = StructuralElement{
		ID:          "K100000R001",
		Title:       "FLR-21 Radar Assembly",
		Description: "BX123456 AUTOBAUD configuration",
	}
	s.elements = []StructuralElement{
		{ID: "K200001H001", Title: "Radar Sensor", Description: ""},
		{ID: "K200002H001", Title: "Software Main", Description: "application image"},
		{ID: "K200003H001", Title: "Software Loader", Description: "Boot Software NA111111"},
		{ID: "K200004H001", Title: "Dataset", Description: "config data set"},
		{ID: "K200005H001", Title: "Label front", Description: ""},
		{ID: "K200006H001", Title: "Bracket", Description: ""},
		{ID: "K200007H001", Title: "Jumper Harness", Description: ""},
	}
}

func TestScheduleSuite(t *testing.T) {
	suite.Run(t, new(ScheduleSuite))
}

func (s *ScheduleSuite) resultFor(rows []ScheduleRow, key string) ScheduleComparison {
	for _, r := range rows {
		if r.Key == key {
			return r.Result
		}
	}
	s.Failf("row not found", "key %s", key)
	return ""
}

func (s *ScheduleSuite) TestIdentifierKeys() {
	rows, findings := CrossCheckSchedule(map[string]string{
		"PART NUMBER":               "K100000R001",
		"RADAR PART NUMBER":         "K200001H001",
		"SW PART NUMBER":            "K200002H001",
		"BOOT SOFTWARE PART NUMBER": "K200003H001",
		"MAIN SOFTWARE PART NUMBER": "K200002H001",
		"CONFIG INI DATA SET":       "K200004H001",
		"LABEL":                     "K200005H001",
		"BRACKET PART NUMBER":       "K200006H001",
	}, s.root, s.elements)

	s.Empty(findings)
	for _, r := range rows {
		s.Equal(ScheduleCorrect, r.Result, r.Key)
	}
	// BRACKET PART NUMBER is not a recognised key.
	s.Len(rows, 7)
}

func (s *ScheduleSuite) TestMismatches() {
	rows, findings := CrossCheckSchedule(map[string]string{
		"RADAR PART NUMBER": "K999999H999",
	}, s.root, s.elements)

	s.Equal(ScheduleIncorrect, s.resultFor(rows, "RADAR PART NUMBER"))
	s.Require().Len(findings, 1)
	s.Equal(FindingMismatch, findings[0].Kind)
	s.Equal(SectionSchedule, findings[0].Section)
}

func (s *ScheduleSuite) TestKeywordGates() {
	s.Run("identifier must sit on a row with the matching keyword", func() {
		rows, _ := CrossCheckSchedule(map[string]string{
			"RADAR PART NUMBER": "K200002H001", // a software row
		}, s.root, s.elements)
		s.Equal(ScheduleIncorrect, s.resultFor(rows, "RADAR PART NUMBER"))
	})

	s.Run("main software must not be boot software", func() {
		rows, _ := CrossCheckSchedule(map[string]string{
			"MAIN SOFTWARE PART NUMBER": "K200003H001",
		}, s.root, s.elements)
		s.Equal(ScheduleIncorrect, s.resultFor(rows, "MAIN SOFTWARE PART NUMBER"))
	})
}

func (s *ScheduleSuite) TestSoftwareVersion() {
	check := func(value string) ScheduleComparison {
		rows, _ := CrossCheckSchedule(map[string]string{"SW VERSION": value}, s.root, s.elements)
		return s.resultFor(rows, "SW VERSION")
	}

	s.Run("autobaud suffix", func() {
		s.Equal(ScheduleCorrect, check("BX123456A"))
	})

	s.Run("high rate suffix requires 500K without autobaud", func() {
		s.Equal(ScheduleIncorrect, check("BX123456H"))
		root := s.root
		root.Description = "BX123456 500K fixed"
		rows, _ := CrossCheckSchedule(map[string]string{"SW VERSION": "BX123456H"}, root, s.elements)
		s.Equal(ScheduleCorrect, s.resultFor(rows, "SW VERSION"))
	})

	s.Run("low rate suffix requires 250K", func() {
		root := s.root
		root.Description = "BX123456 250K fixed"
		rows, _ := CrossCheckSchedule(map[string]string{"SW VERSION": "BX123456L"}, root, s.elements)
		s.Equal(ScheduleCorrect, s.resultFor(rows, "SW VERSION"))
	})

	s.Run("unknown suffix is incorrect", func() {
		s.Equal(ScheduleIncorrect, check("BX123456Z"))
	})

	s.Run("wrong digit run is incorrect", func() {
		s.Equal(ScheduleIncorrect, check("BX999999A"))
	})
}

func (s *ScheduleSuite) TestNotApplicableValues() {
	s.Run("NO opts the row out", func() {
		rows, findings := CrossCheckSchedule(map[string]string{"COVER": "NO"}, s.root, s.elements)
		s.Equal(ScheduleNotApplicable, s.resultFor(rows, "COVER"))
		s.Empty(findings)
	})

	s.Run("identifier keys with non-identifier values opt out", func() {
		rows, findings := CrossCheckSchedule(map[string]string{
			"SERVICE LABEL": "see note",
			"REMAN LABEL":   "TBD",
		}, s.root, s.elements)
		s.Equal(ScheduleNotApplicable, s.resultFor(rows, "SERVICE LABEL"))
		s.Equal(ScheduleNotApplicable, s.resultFor(rows, "REMAN LABEL"))
		s.Empty(findings)
	})

	s.Run("jumper harness YES opts out even when a harness exists", func() {
		rows, _ := CrossCheckSchedule(map[string]string{"JUMPER HARNESS": "YES"}, s.root, s.elements)
		s.Equal(ScheduleNotApplicable, s.resultFor(rows, "JUMPER HARNESS"))
	})

	s.Run("cover YES is checked against titles", func() {
		elements := append(s.elements, StructuralElement{ID: "K9", Title: "Front Cover"})
		rows, _ := CrossCheckSchedule(map[string]string{"COVER": "YES"}, s.root, elements)
		s.Equal(ScheduleCorrect, s.resultFor(rows, "COVER"))
	})
}

func (s *ScheduleSuite) TestRowOrderIsCanonical() {
	schedule := map[string]string{
		"LABEL":             "K200005H001",
		"PART NUMBER":       "K100000R001",
		"RADAR PART NUMBER": "K200001H001",
	}
	rows, _ := CrossCheckSchedule(schedule, s.root, s.elements)
	s.Require().Len(rows, 3)
	s.Equal("PART NUMBER", rows[0].Key)
	s.Equal("RADAR PART NUMBER", rows[1].Key)
	s.Equal("LABEL", rows[2].Key)
}
