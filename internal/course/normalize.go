// Package course canonicalizes course identifiers.
//
// The canonical form is the upper-case subject abbreviation, a dash, and the
// course number: "COSC-2010". Stored profiles may carry space- or
// dash-delimited codes, so every comparison goes through Normalize first.
package course

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Normalize returns the canonical dash form of a course code.
// Full-width characters are folded to ASCII, separators between subject and
// number collapse into one dash, and a missing separator ("COSC2010") is
// inserted. Normalize is idempotent.
func Normalize(code string) string {
	code = strings.TrimSpace(width.Fold.String(code))
	if code == "" {
		return ""
	}

	parts := strings.FieldsFunc(strings.ToUpper(code), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	if len(parts) == 1 {
		return splitSubject(parts[0])
	}
	return strings.Join(parts, "-")
}

// splitSubject inserts a dash between a leading letter run and a trailing digit
// run, leaving anything else untouched.
func splitSubject(s string) string {
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i <= 0 {
		return s
	}
	for _, r := range s[:i] {
		if !unicode.IsLetter(r) {
			return s
		}
	}
	return s[:i] + "-" + s[i:]
}

// NormalizeAll normalizes each code, dropping codes that are empty after trimming.
func NormalizeAll(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if n := Normalize(c); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Subject returns the subject part of a code, e.g. "COSC" for "cosc 2010".
func Subject(code string) string {
	n := Normalize(code)
	if i := strings.IndexByte(n, '-'); i >= 0 {
		return n[:i]
	}
	return n
}
