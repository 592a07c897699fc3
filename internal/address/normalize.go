// Package address prepares free-form addresses for geocoding lookups.
package address

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldings covers Latin letters that carry no Unicode decomposition and would
// otherwise be lost by the ASCII filter.
var foldings = map[rune]string{
	'ł': "l", 'Ł': "L",
	'ø': "o", 'Ø': "O",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'ħ': "h", 'Ħ': "H",
	'ŧ': "t", 'Ŧ': "T",
	'ı': "i",
	'ß': "ss",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
	'þ': "th", 'Þ': "TH",
}

// Normalize returns a canonical geocoding form of the address: commas become
// spaces, letters are transliterated to ASCII (anything without an ASCII
// equivalent is dropped) and whitespace is collapsed and trimmed.
//
// Normalize is idempotent.
func Normalize(addr string) string {
	if addr == "" {
		return ""
	}

	ascii := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	out, _, err := transform.String(ascii, fold(addr))
	if err != nil {
		out = stripNonASCII(norm.NFKD.String(fold(addr)))
	}

	// Compatibility commas (fullwidth, small) only become ASCII after NFKD.
	out = strings.ReplaceAll(out, ",", " ")

	return strings.Join(strings.Fields(out), " ")
}

// Transliterable reports whether every letter and digit of addr survives
// Normalize. Addresses in scripts without an ASCII form (Cyrillic, CJK, ...)
// lose their distinguishing part, so two different ones can normalize to the
// same string.
func Transliterable(addr string) bool {
	for _, r := range addr {
		if r <= unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		if _, ok := foldings[r]; ok {
			continue
		}
		if !strings.ContainsFunc(norm.NFKD.String(string(r)), isASCIIAlnum) {
			return false
		}
	}

	return true
}

func isASCIIAlnum(r rune) bool {
	return r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := foldings[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

func stripNonASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
}
