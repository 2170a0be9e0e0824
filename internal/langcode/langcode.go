// Package langcode converts ISO 639-1 language codes to the three-letter
// ISO 639-3 codes the repository vocabulary expects.
package langcode

import (
	"golang.org/x/text/language"
)

// Table maps a two-letter code to its three-letter form.
type Table interface {
	ISO3(code string) (string, bool)
}

// XText is a Table backed by the CLDR data in golang.org/x/text/language.
type XText struct{}

// ISO3 returns the three-letter code for a two-letter base language.
func (XText) ISO3(code string) (string, bool) {
	base, err := language.ParseBase(code)
	if err != nil {
		return "", false
	}
	iso3 := base.ISO3()
	if len(iso3) != 3 {
		return "", false
	}
	return iso3, true
}

// Map is a fixed Table, mostly useful in tests.
type Map map[string]string

// ISO3 looks the code up in the map.
func (m Map) ISO3(code string) (string, bool) {
	v, ok := m[code]
	return v, ok
}

// Convert returns the three-letter code for a two-letter code the table
// knows. Codes of any other length, unknown codes, and a nil table pass
// through unchanged.
func Convert(t Table, code string) string {
	if t == nil || len(code) != 2 {
		return code
	}
	if iso3, ok := t.ISO3(code); ok {
		return iso3
	}
	return code
}
