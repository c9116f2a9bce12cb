package compliance

import (
	"errors"
	"regexp"
	"strings"

	dErrors "conforma/pkg/domain-errors"
)

// ErrClassification marks part records that cannot be resolved to a catalog
// key. Callers distinguish it from infrastructure failures with errors.Is.
var ErrClassification = errors.New("classification failed")

var variantPattern = regexp.MustCompile(`\d+(SC|[XRN])\d+`)

func classificationError(msg string) error {
	return dErrors.Wrap(ErrClassification, dErrors.CodeValidation, msg)
}

// Classify resolves a product context to a classification, or fails with a
// CodeValidation error wrapping ErrClassification. It never guesses: an
// ambiguous or pattern-violating record is rejected rather than validated
// against the wrong profile.
func Classify(product ProductContext) (Classification, error) {
	title := strings.ToLower(product.Title)

	cls := Classification{
		Family:          product.Family,
		Options:         product.Options,
		PartNumber:      product.PartNumber,
		BasicPartNumber: BasicPartNumber(product.PartNumber),
	}

	switch {
	case product.Family.IsBracket():
		if !strings.Contains(title, "bracket assembly") {
			return Classification{}, classificationError("bracket part title does not contain 'bracket assembly'")
		}
		cls.Kind = KindBracket
		cls.Variant = VariantBracket
		return cls, nil

	case product.Family.IsCover():
		if !strings.Contains(title, "cover") {
			return Classification{}, classificationError("cover part title does not contain 'cover'")
		}
		cls.Kind = KindCover
		cls.Variant = VariantCover
		return cls, nil
	}

	radar := strings.Contains(title, "radar")
	camera := strings.Contains(title, "camera")
	switch {
	case radar && camera:
		return Classification{}, classificationError("part title names both radar and camera")
	case radar:
		cls.Kind = KindRadar
	case camera:
		cls.Kind = KindCamera
	default:
		return Classification{}, classificationError("part title names neither radar nor camera")
	}

	m := variantPattern.FindStringSubmatch(product.PartNumber)
	if m == nil {
		return Classification{}, classificationError("part number carries no digit-delimited variant letter")
	}
	cls.Variant = Variant(m[1])
	return cls, nil
}
