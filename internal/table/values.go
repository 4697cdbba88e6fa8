package table

import (
	"math"
	"strconv"
	"strings"
)

// missingMarkers are the cell spellings treated as "no value". The list mirrors
// the markers common CSV producers emit for nulls.
var missingMarkers = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"#N/A": {},
	"#NA":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"-nan": {},
	"null": {},
	"NULL": {},
	"None": {},
	"<NA>": {},
}

// IsMissing reports whether a cell holds no value.
func IsMissing(s string) bool {
	_, ok := missingMarkers[strings.TrimSpace(s)]
	return ok
}

// NumberFormat describes how numbers are written in a file.
type NumberFormat struct {
	// Decimal separator; 0 means '.'.
	Decimal rune
	// Thousands separator; 0 means none is accepted.
	Thousands rune
}

// DefaultNumberFormat is plain '.'-decimal notation without grouping.
var DefaultNumberFormat = NumberFormat{Decimal: '.'}

// Parse interprets s as a finite number. Missing markers, text, NaN and
// infinities are rejected.
func (f NumberFormat) Parse(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if IsMissing(raw) {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, " ", "")
	dec := f.Decimal
	if dec == 0 {
		dec = '.'
	}
	if f.Thousands != 0 && f.Thousands != dec {
		raw = strings.ReplaceAll(raw, string(f.Thousands), "")
	}
	if dec != '.' {
		if strings.ContainsRune(raw, '.') {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// ParseFloat parses s with DefaultNumberFormat.
func ParseFloat(s string) (float64, bool) { return DefaultNumberFormat.Parse(s) }

// IsInteger reports whether s is written as an integer literal.
func IsInteger(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// FormatFloat renders x the shortest way that round-trips.
func FormatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
