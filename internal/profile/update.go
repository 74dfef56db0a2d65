package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/garyellow/degree-planner/internal/course"
	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/sliceutil"
	"github.com/garyellow/degree-planner/internal/validate"
)

// Programs is the subset of the requirements catalog needed to validate
// profile updates.
type Programs interface {
	IsMajor(name string) bool
	IsMinor(name string) bool
	MajorNames() []string
	MinorNames() []string
	Remapper() *course.Remapper
}

// ListUpdate changes a list field. A replace sets the whole list; otherwise
// Add is unioned in and Remove subtracted, in that order.
type ListUpdate struct {
	Replace   []string
	IsReplace bool
	Add       []string
	Remove    []string
}

// Update changes one profile field. Exactly one of Scalar or List is set.
type Update struct {
	Field  string
	Scalar *string
	List   *ListUpdate
}

// Updates is a parsed, type-checked set of field updates.
type Updates []Update

// Fields returns the updated field names in application order.
func (u Updates) Fields() []string {
	out := make([]string, len(u))
	for i, up := range u {
		out[i] = up.Field
	}
	return out
}

// SetScalar returns an update replacing a scalar field.
func SetScalar(field, value string) Update {
	return Update{Field: field, Scalar: &value}
}

// ReplaceList returns an update replacing a list field.
func ReplaceList(field string, values []string) Update {
	return Update{Field: field, List: &ListUpdate{Replace: values, IsReplace: true}}
}

// ModifyList returns an add/remove update for a list field.
func ModifyList(field string, add, remove []string) Update {
	return Update{Field: field, List: &ListUpdate{Add: add, Remove: remove}}
}

// ParseUpdates type-checks a raw update mapping such as
//
//	{"name": "Ada", "majors": ["..."], "courses_completed": {"add": ["COSC 1010"]}}
//
// It rejects unknown field names and values of the wrong shape. Program
// names are checked later by Apply against the live catalog.
func ParseUpdates(raw map[string]json.RawMessage) (Updates, error) {
	if len(raw) == 0 {
		return nil, domerrors.NewValidationError("", "No profile fields to update")
	}

	var unknown []string
	for k := range raw {
		if !slices.Contains(fieldOrder, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, domerrors.NewValidationError(unknown[0],
			"Invalid profile key: "+strings.Join(unknown, ", "))
	}

	updates := make(Updates, 0, len(raw))
	for _, field := range fieldOrder {
		value, ok := raw[field]
		if !ok {
			continue
		}
		if isListField(field) {
			lu, err := parseList(field, value)
			if err != nil {
				return nil, err
			}
			updates = append(updates, Update{Field: field, List: lu})
			continue
		}
		var s string
		// null would decode to "" and silently clear the field.
		if isNull(value) || strictDecode(value, &s) != nil {
			return nil, domerrors.NewValidationError(field,
				fmt.Sprintf("Invalid type for %s: expected string", field))
		}
		updates = append(updates, Update{Field: field, Scalar: &s})
	}
	return updates, nil
}

func parseList(field string, value json.RawMessage) (*ListUpdate, error) {
	var list []string
	if err := strictDecode(value, &list); err == nil && list != nil {
		return &ListUpdate{Replace: list, IsReplace: true}, nil
	}

	var ops struct {
		Add    []string `json:"add"`
		Remove []string `json:"remove"`
	}
	if err := strictDecode(value, &ops); err == nil && bytes.HasPrefix(bytes.TrimSpace(value), []byte("{")) {
		return &ListUpdate{Add: ops.Add, Remove: ops.Remove}, nil
	}
	return nil, domerrors.NewValidationError(field, fmt.Sprintf(
		"Invalid type for %s: expected list or object with 'add'/'remove' keys", field))
}

func isNull(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func strictDecode(data json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Apply returns a copy of p with updates applied. Every update is validated
// before any is applied, so on error p is untouched and no partial result
// exists.
//
// List fields behave as ordered sets: duplicates collapse and first-seen
// order is kept. Course codes are normalized and legacy numbers remapped on
// every write, including removals.
func Apply(p *Profile, updates Updates, programs Programs) (*Profile, error) {
	if err := checkPrograms(updates, programs); err != nil {
		return nil, err
	}

	remap := programs.Remapper()
	next := p.Clone()
	for _, u := range updates {
		if u.Scalar != nil {
			v := strings.TrimSpace(*u.Scalar)
			switch u.Field {
			case FieldName:
				next.Name = &v
			case FieldGrade:
				next.Grade = &v
			case FieldSchool:
				next.School = &v
			}
			continue
		}
		if u.List == nil {
			continue
		}

		target := next.listField(u.Field)
		norm := sliceutil.Unique[string]
		if u.Field == FieldCoursesCompleted {
			norm = func(codes []string) []string {
				return sliceutil.Unique(remap.NormalizeCourseNumbers(codes))
			}
		}
		if u.List.IsReplace {
			*target = norm(u.List.Replace)
			continue
		}
		merged := sliceutil.Union(norm(*target), norm(u.List.Add))
		*target = sliceutil.Subtract(merged, norm(u.List.Remove))
	}
	// Stored courses may predate normalization; any write canonicalizes them.
	next.CoursesCompleted = sliceutil.Unique(remap.NormalizeCourseNumbers(next.CoursesCompleted))
	next.fillNil()

	if err := validate.Struct(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (p *Profile) listField(field string) *[]string {
	switch field {
	case FieldMajors:
		return &p.Majors
	case FieldMinors:
		return &p.Minors
	default:
		return &p.CoursesCompleted
	}
}

// checkPrograms rejects any major or minor being set or added that is not a
// canonical catalog name. Removals are not checked so retired programs can
// still be dropped.
func checkPrograms(updates Updates, programs Programs) error {
	for _, u := range updates {
		if u.List == nil {
			continue
		}
		values := u.List.Add
		if u.List.IsReplace {
			values = u.List.Replace
		}

		var invalid []string
		switch u.Field {
		case FieldMajors:
			for _, v := range values {
				if !programs.IsMajor(v) {
					invalid = append(invalid, v)
				}
			}
			if len(invalid) > 0 {
				return domerrors.NewValidationError(u.Field, fmt.Sprintf(
					"Invalid major(s): %s. Valid majors are: %s",
					strings.Join(invalid, ", "), strings.Join(programs.MajorNames(), "; ")))
			}
		case FieldMinors:
			for _, v := range values {
				if !programs.IsMinor(v) {
					invalid = append(invalid, v)
				}
			}
			if len(invalid) > 0 {
				return domerrors.NewValidationError(u.Field, fmt.Sprintf(
					"Invalid minor(s): %s. Valid minors are: %s",
					strings.Join(invalid, ", "), strings.Join(programs.MinorNames(), "; ")))
			}
		}
	}
	return nil
}
