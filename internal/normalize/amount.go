// Package normalize turns untrusted tabular uploads into canonical billing
// records. The helpers here are intentionally forgiving: unparseable amounts
// coerce to zero, unparseable dates to nil, and malformed input to an empty
// record set. Nothing in this package returns an error to its caller.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var amountCleanRe = regexp.MustCompile(`[^0-9.\-]`)

// CoerceAmount converts an arbitrary scalar to a float amount. Strings are
// stripped of currency symbols, commas and other noise before parsing.
// Anything unparseable coerces to 0.
func CoerceAmount(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return coerceAmountString(v)
	default:
		return 0
	}
}

func coerceAmountString(value string) float64 {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0
	}
	s = amountCleanRe.ReplaceAllString(s, "")
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return parsed
}
