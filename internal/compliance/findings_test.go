package compliance

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type FindingsSuite struct {
	suite.Suite
}

func TestFindingsSuite(t *testing.T) {
	suite.Run(t, new(FindingsSuite))
}

func (s *FindingsSuite) TestFindingSetOperations() {
	s.Run("preserves insertion order", func() {
		set := newFindingSet()
		set.Append("b")
		set.Append("a")
		set.Append("c")
		s.Equal([]string{"b", "a", "c"}, set.Names())
	})

	s.Run("append tolerates duplicates", func() {
		set := newFindingSet()
		set.Append("x")
		set.Append("x")
		s.Equal([]string{"x", "x"}, set.Names())

		set.Remove("x")
		s.True(set.Contains("x"))
		set.Remove("x")
		s.False(set.Contains("x"))
	})

	s.Run("remove of absent name is a no-op", func() {
		set := newFindingSet()
		set.Append("a")
		set.Remove("missing")
		s.Equal([]string{"a"}, set.Names())
	})

	s.Run("rename replaces in place", func() {
		set := newFindingSet()
		set.Append("a")
		set.Append("b")
		set.Rename("a", "z")
		s.Equal([]string{"z", "b"}, set.Names())
		s.False(set.Contains("a"))
		s.True(set.Contains("z"))
	})
}

func (s *FindingsSuite) TestConformance() {
	s.Run("advisories and presents keep the verdict", func() {
		r := DiagnosticResult{Findings: []Finding{
			{Kind: FindingPresent, Name: "Dataset"},
			{Kind: FindingAdvisory, Name: "Screw"},
		}}
		s.True(r.Conformant())
		s.Zero(r.HardFindingCount())
	})

	s.Run("a single missing finding flips the verdict", func() {
		r := DiagnosticResult{Findings: []Finding{
			{Kind: FindingPresent, Name: "Dataset"},
			{Kind: FindingMissing, Name: "Software"},
		}}
		s.False(r.Conformant())
		s.Equal(1, r.HardFindingCount())
	})

	s.Run("mismatches flip the verdict", func() {
		r := DiagnosticResult{Findings: []Finding{
			{Kind: FindingMismatch, Name: "Device Code"},
		}}
		s.False(r.Conformant())
	})

	s.Run("an undefined rule set never conforms", func() {
		r := DiagnosticResult{NoRuleDefined: true}
		s.False(r.Conformant())
	})
}
