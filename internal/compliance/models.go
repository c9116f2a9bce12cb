// Package compliance implements the part-record reconciliation core: a
// classification resolver, a requirement catalog, and pure engines that diff
// observed BOM structure, engineering documents, and configuration parameters
// against the catalog's requirement profile.
//
// The engines perform no I/O and hold no state between calls. Everything they
// report is expressed as findings on a DiagnosticResult; only classification
// failures surface as errors.
package compliance

import (
	"regexp"
	"strings"

	dErrors "conforma/pkg/domain-errors"
)

// Family is the product family selected for a validation run.
type Family string

const (
	FamilyFLC20        Family = "FLC-20"
	FamilyFLR21        Family = "FLR-21"
	FamilyFLC25        Family = "FLC-25"
	FamilyFLR25        Family = "FLR-25"
	FamilyFLR25Bracket Family = "FLR-25 Bracket"
	FamilyFLC25Bracket Family = "FLC-25 Bracket"
	FamilyFLC25Cover   Family = "FLC-25 Cover"
)

var families = map[Family]bool{
	FamilyFLC20:        true,
	FamilyFLR21:        true,
	FamilyFLC25:        true,
	FamilyFLR25:        true,
	FamilyFLR25Bracket: true,
	FamilyFLC25Bracket: true,
	FamilyFLC25Cover:   true,
}

// ParseFamily validates a family code string.
func ParseFamily(s string) (Family, error) {
	f := Family(strings.TrimSpace(s))
	if !families[f] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown product family %q", s)
	}
	return f, nil
}

// IsBracket reports whether the family is one of the mounting bracket families.
func (f Family) IsBracket() bool {
	return f == FamilyFLR25Bracket || f == FamilyFLC25Bracket
}

// IsCover reports whether the family is the cover family.
func (f Family) IsCover() bool {
	return f == FamilyFLC25Cover
}

// IsLegacy reports whether the family uses the first-generation rule tables.
func (f Family) IsLegacy() bool {
	return f == FamilyFLC20 || f == FamilyFLR21
}

// BaseFamily collapses bracket and cover sub-families onto the sensor family
// whose type number the part record carries.
func (f Family) BaseFamily() Family {
	switch f {
	case FamilyFLR25Bracket:
		return FamilyFLR25
	case FamilyFLC25Bracket, FamilyFLC25Cover:
		return FamilyFLC25
	default:
		return f
	}
}

func (f Family) String() string { return string(f) }

// Variant is the commercial variant letter embedded in the part identifier.
type Variant string

const (
	VariantX  Variant = "X"
	VariantR  Variant = "R"
	VariantN  Variant = "N"
	VariantSC Variant = "SC"

	// Pseudo-variants assigned to bracket and cover parts, which carry no
	// variant letter in their identifiers.
	VariantBracket Variant = "B"
	VariantCover   Variant = "Cover"
)

func (v Variant) String() string { return string(v) }

// ElementKind is the coarse classification of the assembly under validation.
type ElementKind string

const (
	KindRadar   ElementKind = "Radar"
	KindCamera  ElementKind = "Camera"
	KindBracket ElementKind = "Bracket"
	KindCover   ElementKind = "Cover"
)

func (k ElementKind) String() string { return string(k) }

// Lifecycle is a document lifecycle state. Every enumerated state counts as
// acceptable for compliance; anything else does not.
type Lifecycle string

const (
	LifecycleWorking  Lifecycle = "Working"
	LifecycleProposed Lifecycle = "Proposed"
	LifecycleRejected Lifecycle = "Rejected"
	LifecycleApproved Lifecycle = "Approved"
	LifecycleReleased Lifecycle = "Released"
)

var acceptableLifecycles = map[Lifecycle]bool{
	LifecycleWorking:  true,
	LifecycleProposed: true,
	LifecycleRejected: true,
	LifecycleApproved: true,
	LifecycleReleased: true,
}

// Acceptable reports whether the lifecycle state counts for compliance.
func (l Lifecycle) Acceptable() bool {
	return acceptableLifecycles[l]
}

// Options carries the option flags that influence requirement resolution.
// They are explicit inputs; engines never read shared state.
type Options struct {
	// Bracket indicates the product ships with a mounting bracket.
	Bracket bool
	// Resistor indicates the product carries a CAN termination resistor.
	Resistor bool
	// Aftermarket indicates the part is sold through the aftermarket channel
	// only. It relaxes document requirements for bracket and cover parts.
	Aftermarket bool
}

// ProductContext is the raw, upstream-provided description of the part under
// validation. It is created once per run and never mutated.
type ProductContext struct {
	PartNumber string
	Title      string
	Family     Family
	Options    Options
}

// Classification is the resolved requirement catalog key for a product.
type Classification struct {
	Family  Family
	Variant Variant
	Kind    ElementKind
	Options Options

	// BasicPartNumber is the leading K-prefixed digit run of the part
	// identifier, used as the expected value of the Basic Part Number
	// attribute.
	BasicPartNumber string
	PartNumber      string
}

// StructuralElement is one observed BOM row. Ordering is insertion order from
// the extraction source and matters only for first-match-wins rules.
type StructuralElement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Quantity is kept as the raw decimal-encoded string from the source;
	// parsing failures degrade to zero rather than aborting the run.
	Quantity string `json:"quantity"`
}

// DocumentRecord is one observed engineering document.
type DocumentRecord struct {
	// Title is the composite document title; for Service Data documents the
	// comma-separated tokens after the first carry language codes.
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Lifecycle Lifecycle `json:"lifecycle_state"`
}

var basicPartPattern = regexp.MustCompile(`^K\d+`)

// BasicPartNumber extracts the leading K-prefixed digit run of a part
// identifier, or "" when there is none.
func BasicPartNumber(partNumber string) string {
	return basicPartPattern.FindString(partNumber)
}
