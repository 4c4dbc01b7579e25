package common

import (
	"strconv"
	"strings"
	"unicode"
)

// HasAny returns true if s contains any of the substrings, ignoring case.
func HasAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// ParseAmount reads a number out of loosely formatted text such as
// "₹ 2,150.50 /qtl". It returns false when no digits are present.
func ParseAmount(s string) (float64, bool) {
	var b strings.Builder
	seen := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			seen = true
		case r == '.' && seen:
			b.WriteRune(r)
		case r == '-' && !seen && b.Len() == 0:
			b.WriteRune(r)
		case r == ',' && seen:
			// thousands separator
		default:
			if seen {
				return finish(b.String())
			}
			b.Reset()
		}
	}
	if !seen {
		return 0, false
	}
	return finish(b.String())
}

func finish(num string) (float64, bool) {
	num = strings.TrimRight(num, ".")
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
