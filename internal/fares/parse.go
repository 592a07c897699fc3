package fares

import (
	"math"
	"strconv"
	"strings"
)

// nbsp separates the currency token from the amount in API fare strings.
const nbsp = "\u00a0"

// ParseFare splits a fare string such as "PLN\u00a012.50" into its currency
// token and numeric value. A missing or unparsable amount yields 0.
//
// A string without the separator is treated as a bare amount when it holds
// digits, and as a bare currency token otherwise.
func ParseFare(s string) (string, float64) {
	head, rest, found := strings.Cut(s, nbsp)
	if found {
		return head, CleanFare(rest)
	}
	if strings.ContainsAny(s, "0123456789") {
		return "", CleanFare(s)
	}

	return s, 0
}

// CleanFare keeps only ASCII digits and '.' and parses the rest. Anything that
// still does not parse is 0.
func CleanFare(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}

	return v
}

// TripMinutes converts a trip duration in seconds into whole minutes.
func TripMinutes(seconds float64) int {
	return toInt(seconds) / 60 //nolint:mnd // seconds per minute
}

// toInt truncates v to an int in [0, math.MaxInt32]. Converting a float
// beyond the int range is implementation-defined, so huge values are clamped.
func toInt(v float64) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	default:
		return int(v)
	}
}

// lastToken returns the last space separated token of s.
func lastToken(s string) string {
	if idx := strings.LastIndexByte(s, ' '); idx >= 0 {
		return s[idx+1:]
	}

	return s
}
