package correlation

import (
	"errors"
	"strings"
	"time"
)

// CanonicalDOBLayout is the date-of-birth layout the PAN provider expects.
const CanonicalDOBLayout = "02/01/2006"

var dobLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"02.01.2006",
}

var errUnrecognisedDOB = errors.New("unrecognised date of birth format")

// NormalizeDOB converts any supported date layout to DD/MM/YYYY.
func NormalizeDOB(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errUnrecognisedDOB
	}
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDOBLayout), nil
		}
	}
	return "", errUnrecognisedDOB
}

// MatchDob reports whether two dates of birth are the same day, whatever
// supported layouts they arrive in. Unparseable input never matches.
func MatchDob(a, b string) bool {
	na, err := NormalizeDOB(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeDOB(b)
	if err != nil {
		return false
	}
	return na == nb
}

// MatchCategory compares a PAN category against the expected one.
func MatchCategory(category, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(category), strings.TrimSpace(expected))
}
