// Package profile owns a student's degree profile: declared programs and
// completed courses, with full-replace and incremental list updates.
package profile

import (
	"slices"

	"github.com/garyellow/degree-planner/internal/course"
)

// Profile field names as they appear in JSON and in update requests.
const (
	FieldName             = "name"
	FieldGrade            = "grade"
	FieldSchool           = "school"
	FieldMajors           = "majors"
	FieldMinors           = "minors"
	FieldCoursesCompleted = "courses_completed"
)

// fieldOrder fixes the order in which updates are applied and reported.
var fieldOrder = []string{FieldName, FieldGrade, FieldSchool, FieldMajors, FieldMinors, FieldCoursesCompleted}

func isListField(field string) bool {
	return field == FieldMajors || field == FieldMinors || field == FieldCoursesCompleted
}

// Profile is a student's degree profile. Unset scalar fields are nil and
// render as JSON null; list fields are never nil.
type Profile struct {
	Name             *string  `json:"name" validate:"omitempty,max=128"`
	Grade            *string  `json:"grade" validate:"omitempty,max=32"`
	School           *string  `json:"school" validate:"omitempty,max=128"`
	Majors           []string `json:"majors" validate:"max=8"`
	Minors           []string `json:"minors" validate:"max=8"`
	CoursesCompleted []string `json:"courses_completed" validate:"max=500,dive,coursecode"`
}

// Default returns the empty profile served for users without one.
func Default() *Profile {
	return &Profile{
		Majors:           []string{},
		Minors:           []string{},
		CoursesCompleted: []string{},
	}
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := &Profile{
		Name:             clonePtr(p.Name),
		Grade:            clonePtr(p.Grade),
		School:           clonePtr(p.School),
		Majors:           slices.Clone(p.Majors),
		Minors:           slices.Clone(p.Minors),
		CoursesCompleted: slices.Clone(p.CoursesCompleted),
	}
	c.fillNil()
	return c
}

// fillNil replaces nil lists with empty ones so JSON renders [] not null.
func (p *Profile) fillNil() {
	if p.Majors == nil {
		p.Majors = []string{}
	}
	if p.Minors == nil {
		p.Minors = []string{}
	}
	if p.CoursesCompleted == nil {
		p.CoursesCompleted = []string{}
	}
}

// NormalizedCourses returns the completed courses in canonical form with
// legacy numbers remapped.
func (p *Profile) NormalizedCourses(r *course.Remapper) []string {
	return r.NormalizeCourseNumbers(p.CoursesCompleted)
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
