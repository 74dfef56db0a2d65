// Package requirements loads the degree requirements catalog and evaluates a
// student's completed courses against it.
package requirements

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/garyellow/degree-planner/internal/course"
	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/pattern"
)

//go:embed schema.json
var catalogSchema string

// Kind distinguishes the two program shapes.
type Kind string

const (
	KindMajor Kind = "major"
	KindMinor Kind = "minor"
)

// Bucket is a pattern-matched requirement satisfied by RequiredCount courses.
type Bucket struct {
	ValidPatterns   []pattern.Pattern `json:"valid_patterns"`
	RequiredCount   int               `json:"required_count"`
	Description     string            `json:"description,omitempty"`
	ExcludeRequired bool              `json:"exclude_required,omitempty"`
}

// Program is one major or minor definition.
type Program struct {
	// Name is the canonical program name (the catalog key).
	Name                   string            `json:"name"`
	Kind                   Kind              `json:"kind"`
	Code                   string            `json:"code"`
	Aliases                []string          `json:"aliases,omitempty"`
	RequiredCourses        map[string]string `json:"required_courses"`
	MathRequirements       map[string]string `json:"math_requirements,omitempty"`
	Electives              *Bucket           `json:"electives,omitempty"`
	AdditionalRequirements map[string]Bucket `json:"additional_requirements,omitempty"`
}

// Catalog is the shared, read-only requirements catalog. A Catalog is never
// mutated after Load returns, so it is safe for concurrent use.
type Catalog struct {
	Majors              map[string]*Program `json:"majors"`
	Minors              map[string]*Program `json:"minors"`
	ValidMathElectives  map[string]string   `json:"valid_math_electives"`
	LegacyCourseNumbers map[string]string   `json:"legacy_course_numbers,omitempty"`

	index    map[string]*Program
	remapper *course.Remapper
}

// FieldError is a single schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaError reports every schema violation found in a catalog document.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("catalog schema validation failed:")
	for i, fe := range e.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// Load validates raw catalog JSON against the embedded schema, decodes it and
// normalizes every course code it contains.
func Load(raw []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if !result.Valid() {
		schemaErr := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			schemaErr.Errors = append(schemaErr.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return nil, schemaErr
	}

	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.build(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) build() error {
	c.ValidMathElectives = normalizeKeys(c.ValidMathElectives)
	c.remapper = course.NewRemapper(c.LegacyCourseNumbers)
	c.index = make(map[string]*Program)

	register := func(programs map[string]*Program, kind Kind) error {
		for name, p := range programs {
			p.Name = name
			p.Kind = kind
			p.RequiredCourses = normalizeKeys(p.RequiredCourses)
			p.MathRequirements = normalizeKeys(p.MathRequirements)

			keys := append([]string{name, p.Code}, p.Aliases...)
			for _, k := range keys {
				k = lookupKey(k)
				if k == "" {
					continue
				}
				if other, ok := c.index[k]; ok && other != p {
					return fmt.Errorf("catalog: %q is used by both %q and %q", k, other.Name, name)
				}
				c.index[k] = p
			}
		}
		return nil
	}

	if err := register(c.Majors, KindMajor); err != nil {
		return err
	}
	return register(c.Minors, KindMinor)
}

func normalizeKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[course.Normalize(k)] = v
	}
	return out
}

func lookupKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup resolves a canonical program name, short code (e.g. "BS") or alias
// (e.g. "cs minor"). Matching ignores case and surrounding whitespace.
func (c *Catalog) Lookup(name string) (*Program, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.index[lookupKey(name)]
	return p, ok
}

// MajorNames returns the canonical major names in sorted order.
func (c *Catalog) MajorNames() []string {
	return slices.Sorted(maps.Keys(c.Majors))
}

// MinorNames returns the canonical minor names in sorted order.
func (c *Catalog) MinorNames() []string {
	return slices.Sorted(maps.Keys(c.Minors))
}

// ProgramNames returns every canonical program name, majors first.
func (c *Catalog) ProgramNames() []string {
	return append(c.MajorNames(), c.MinorNames()...)
}

// IsMajor reports whether name is exactly a canonical major name.
func (c *Catalog) IsMajor(name string) bool {
	_, ok := c.Majors[name]
	return ok
}

// IsMinor reports whether name is exactly a canonical minor name.
func (c *Catalog) IsMinor(name string) bool {
	_, ok := c.Minors[name]
	return ok
}

// Remapper returns the legacy course number table.
func (c *Catalog) Remapper() *course.Remapper {
	if c == nil {
		return nil
	}
	return c.remapper
}

// MathElectives returns the approved math elective codes in sorted order.
func (c *Catalog) MathElectives() []string {
	return slices.Sorted(maps.Keys(c.ValidMathElectives))
}

// View is the response shape of Requirements.
type View struct {
	Majors             map[string]*Program `json:"majors,omitempty"`
	Minors             map[string]*Program `json:"minors,omitempty"`
	ValidMathElectives map[string]string   `json:"valid_math_electives,omitempty"`
}

// Requirements returns the whole catalog when program is empty, otherwise the
// definition of one program. Majors with math requirements also carry the
// approved math electives.
func (c *Catalog) Requirements(program string) (View, error) {
	if strings.TrimSpace(program) == "" {
		return View{Majors: c.Majors, Minors: c.Minors, ValidMathElectives: c.ValidMathElectives}, nil
	}

	p, ok := c.Lookup(program)
	if !ok {
		return View{}, c.unknownProgram(program)
	}
	if p.Kind == KindMinor {
		return View{Minors: map[string]*Program{p.Name: p}}, nil
	}
	v := View{Majors: map[string]*Program{p.Name: p}}
	if len(p.MathRequirements) > 0 {
		v.ValidMathElectives = c.ValidMathElectives
	}
	return v, nil
}

func (c *Catalog) unknownProgram(program string) error {
	return domerrors.NewValidationError("program", fmt.Sprintf(
		"Program '%s' not recognized. Valid programs are: %s",
		program, strings.Join(c.ProgramNames(), "; ")))
}
