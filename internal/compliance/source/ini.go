// Package source extracts configuration parameters from the INI files that
// accompany firmware releases, and derives the reference values for the
// parameters whose expected values come from the BOM rather than from the
// reference file itself.
package source

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"

	dErrors "conforma/pkg/domain-errors"
)

// Parameter is one named configuration value in file order.
type Parameter struct {
	Name  string
	Value string
}

// Element is the slice of a BOM row the derivation rules need.
type Element struct {
	ID          string
	Title       string
	Description string
}

// undefinedValue marks parameters whose value could not be resolved from any
// source. It compares unequal to every real value, so unresolved parameters
// surface as mismatches instead of passing silently.
const undefinedValue = "Undefined"

const (
	paramBootSWID      = "BOOT_SW_ID"
	paramSSAppSWID     = "SS_APP_SW_ID"
	paramAppSWID       = "APP_SW_ID"
	paramSSECUSWNumber = "SS_ECU_SW_NUMBER"
	paramAppDataID     = "APP_DATA_ID"
	paramVehManECUHW   = "VEH_MAN_ECU_HW_NUMBER"
)

var bootIDPattern = regexp.MustCompile(`NA(\d+)`)

// ParametersFromINI parses one INI document. Only sections whose names start
// with PARAM or DTCPARAM contribute; each holds a PARAMETERNAME and a
// PARAMETERVALUE key, both possibly double-quoted. Section order is
// preserved.
func ParametersFromINI(data []byte) ([]Parameter, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed configuration file")
	}

	var params []Parameter
	for _, section := range f.Sections() {
		if !strings.HasPrefix(section.Name(), "PARAM") && !strings.HasPrefix(section.Name(), "DTCPARAM") {
			continue
		}
		name := unquote(section.Key("PARAMETERNAME").String())
		if name == "" {
			continue
		}
		value := undefinedValue
		if section.HasKey("PARAMETERVALUE") {
			value = unquote(section.Key("PARAMETERVALUE").String())
		}
		params = append(params, Parameter{Name: name, Value: value})
	}
	return params, nil
}

// ParametersFromZip parses every .ini member of a zip archive and
// concatenates their parameters in archive order.
func ParametersFromZip(archive []byte) ([]Parameter, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "not a valid zip archive")
	}

	var params []Parameter
	for _, member := range zr.File {
		if !strings.HasSuffix(member.Name, ".ini") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return nil, dErrors.Wrapf(err, dErrors.CodeInvalidInput, "cannot open archive member %q", member.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, dErrors.Wrapf(err, dErrors.CodeInvalidInput, "cannot read archive member %q", member.Name)
		}
		p, err := ParametersFromINI(data)
		if err != nil {
			return nil, err
		}
		params = append(params, p...)
	}
	return params, nil
}

// AsMap collapses an ordered parameter list into a lookup map. The first
// occurrence of a name wins.
func AsMap(params []Parameter) map[string]string {
	m := make(map[string]string, len(params))
	for _, p := range params {
		if _, ok := m[p.Name]; !ok {
			m[p.Name] = p.Value
		}
	}
	return m
}

// DeriveReference rewrites the reference parameter list, substituting the
// values of the parameters that are pinned to the BOM: software and dataset
// identifiers come from matching BOM rows, the hardware number from the part
// identifier. Everything else keeps the value from the reference file.
func DeriveReference(params []Parameter, elements []Element, partNumber string) []Parameter {
	out := make([]Parameter, len(params))
	for i, p := range params {
		out[i] = Parameter{Name: p.Name, Value: referenceValue(p, elements, partNumber)}
	}
	return out
}

func referenceValue(p Parameter, elements []Element, partNumber string) string {
	switch p.Name {
	case paramBootSWID, paramSSAppSWID:
		digits := bootSoftwareDigits(elements)
		if digits == "" {
			return undefinedValue
		}
		if p.Name == paramBootSWID {
			return "NA" + digits
		}
		return "DCCANA" + digits
	case paramAppSWID, paramSSECUSWNumber:
		return firstElementID(elements, "Software", true)
	case paramAppDataID:
		return firstElementID(elements, "Dataset", false)
	case paramVehManECUHW:
		return partNumber
	default:
		return p.Value
	}
}

// bootSoftwareDigits finds the NA-prefixed digit run in the first boot
// software row description.
func bootSoftwareDigits(elements []Element) string {
	for _, e := range elements {
		if !strings.Contains(strings.ToLower(e.Description), "boot") {
			continue
		}
		if m := bootIDPattern.FindStringSubmatch(e.Description); m != nil {
			return m[1]
		}
	}
	return ""
}

// firstElementID returns the identifier of the first row whose title carries
// the keyword, optionally skipping boot software rows.
func firstElementID(elements []Element, keyword string, excludeBoot bool) string {
	for _, e := range elements {
		if !strings.Contains(e.Title, keyword) {
			continue
		}
		if excludeBoot && strings.Contains(strings.ToLower(e.Description), "boot") {
			continue
		}
		return e.ID
	}
	return undefinedValue
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
