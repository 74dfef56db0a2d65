// Package pattern matches course codes against elective-category patterns.
//
// Matching is anchored at the start of the canonical course code and is NOT a
// full-string match: the prefix "COSC-2" matches both "COSC-2010" and
// "COSC-2999". Catalogs rely on this to express numeric ranges with a handful
// of short patterns.
package pattern

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/garyellow/degree-planner/internal/course"
)

// Kind identifies the pattern variant.
type Kind int

const (
	// KindPrefix matches codes that start with the literal value.
	KindPrefix Kind = iota
	// KindExact matches one canonical code.
	KindExact
	// KindRegex matches codes where the expression matches at position 0.
	KindRegex
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindRegex:
		return "regex"
	default:
		return "prefix"
	}
}

// regexMeta lists the characters that turn a bare catalog string into a regex.
const regexMeta = `.*+?()[]{}|^$\`

// Pattern is a typed union of {exact code, literal prefix, start-anchored regex}.
// The zero value is an empty prefix and matches every code.
type Pattern struct {
	kind  Kind
	value string
	re    *regexp.Regexp
}

// Exact returns a pattern matching one course code.
func Exact(code string) Pattern {
	return Pattern{kind: KindExact, value: course.Normalize(code)}
}

// Prefix returns a pattern matching every code that starts with prefix.
func Prefix(prefix string) Pattern {
	return Pattern{kind: KindPrefix, value: canonicalPrefix(prefix)}
}

// Regex compiles expr into a pattern anchored at the start of the code.
// A leading "^" is accepted and ignored. Codes are matched in canonical
// upper case, so the expression is case-insensitive.
func Regex(expr string) (Pattern, error) {
	expr = strings.TrimPrefix(strings.TrimSpace(expr), "^")
	if expr == "" {
		return Pattern{}, errors.New("pattern: empty regex")
	}
	re, err := regexp.Compile(`^(?i:` + expr + `)`)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern: compile %q: %w", expr, err)
	}
	return Pattern{kind: KindRegex, value: expr, re: re}, nil
}

// MustRegex is Regex that panics on error. Intended for tests and literals.
func MustRegex(expr string) Pattern {
	p, err := Regex(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse interprets a bare catalog string: anything containing a regex
// metacharacter becomes a start-anchored regex, everything else a prefix.
func Parse(s string) (Pattern, error) {
	if strings.TrimSpace(s) == "" {
		return Pattern{}, errors.New("pattern: empty pattern")
	}
	if strings.ContainsAny(s, regexMeta) {
		return Regex(s)
	}
	return Prefix(s), nil
}

// ParseAll parses every string, failing on the first invalid one.
func ParseAll(ss []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(ss))
	for _, s := range ss {
		p, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// canonicalPrefix spells a prefix the way Normalize spells codes, so "COSC2"
// and "cosc 2" both become "COSC-2". A trailing separator is kept to bound
// the subject: "MATH-" does not match "MATHX-1010".
func canonicalPrefix(s string) string {
	s = strings.TrimSpace(s)
	n := course.Normalize(s)
	if n != "" && strings.HasSuffix(s, "-") && !strings.HasSuffix(n, "-") {
		n += "-"
	}
	return n
}

// Kind returns the pattern variant.
func (p Pattern) Kind() Kind { return p.kind }

// String renders the pattern the way a catalog would spell it.
func (p Pattern) String() string {
	return p.kind.String() + ":" + p.value
}

// Match reports whether code matches p. The code is normalized first, so
// "COSC 2010" and "COSC-2010" behave the same.
func (p Pattern) Match(code string) bool {
	return p.matchNormalized(course.Normalize(code))
}

func (p Pattern) matchNormalized(code string) bool {
	switch p.kind {
	case KindExact:
		return code == p.value
	case KindRegex:
		return p.re != nil && p.re.MatchString(code)
	default:
		return strings.HasPrefix(code, p.value)
	}
}

// MatchesAny reports whether code matches at least one pattern.
func MatchesAny(code string, patterns []Pattern) bool {
	n := course.Normalize(code)
	for _, p := range patterns {
		if p.matchNormalized(n) {
			return true
		}
	}
	return false
}

// Filter returns the codes matching any pattern, preserving input order.
func Filter(codes []string, patterns []Pattern) []string {
	var out []string
	for _, c := range codes {
		if MatchesAny(c, patterns) {
			out = append(out, c)
		}
	}
	return out
}

// UnmarshalJSON accepts a bare string (see Parse) or a single-key object
// {"exact": ...}, {"prefix": ...} or {"regex": ...}.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("pattern: expected string or object, got %s", string(data))
	}
	if len(obj) != 1 {
		return fmt.Errorf("pattern: object must have exactly one of exact, prefix, regex")
	}
	for k, v := range obj {
		switch k {
		case "exact":
			*p = Exact(v)
		case "prefix":
			*p = Prefix(v)
		case "regex":
			parsed, err := Regex(v)
			if err != nil {
				return err
			}
			*p = parsed
		default:
			return fmt.Errorf("pattern: unknown kind %q", k)
		}
	}
	return nil
}

// MarshalJSON renders the explicit object form.
func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{p.kind.String(): p.value})
}
