package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
)

type sample struct {
	Title   string   `json:"title" validate:"required"`
	CRN     string   `json:"crn" validate:"required"`
	Note    string   `json:"note" validate:"max=5"`
	Courses []string `json:"courses" validate:"dive,coursecode"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     sample
		wantField string
		wantMsg   string
	}{
		{"valid", sample{Title: "T", CRN: "1", Courses: []string{"COSC-2010"}}, "", ""},
		{"missing fields reported together", sample{}, "title,crn", "Missing required fields: title, crn"},
		{"too long", sample{Title: "T", CRN: "1", Note: "toolong"}, "note", "note must be at most 5 characters"},
		{"bad course code", sample{Title: "T", CRN: "1", Courses: []string{"COSC 2010"}}, "courses[0]", `Invalid course code "COSC 2010"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.input)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var verr *domerrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.True(t, domerrors.IsInvalidInput(err))
		})
	}
}

func TestUserID(t *testing.T) {
	t.Parallel()
	for _, ok := range []string{"alice", "a.b-c_d", "User42"} {
		assert.NoError(t, UserID(ok), ok)
	}
	for _, bad := range []string{"", "../etc", ".hidden", "has space", string(make([]byte, 70))} {
		assert.Error(t, UserID(bad), bad)
	}
}

func TestCourseCode(t *testing.T) {
	t.Parallel()
	assert.True(t, CourseCode("COSC-2010"))
	assert.True(t, CourseCode("MATH-ELECTIVE-1"))
	assert.True(t, CourseCode("PHIL-099"))
	assert.False(t, CourseCode("COSC"))
	assert.False(t, CourseCode("cosc-2010"))
	assert.False(t, CourseCode("COSC 2010"))
}
