package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"space delimited", "COSC 2010", "COSC-2010"},
		{"already canonical", "COSC-2010", "COSC-2010"},
		{"lower case", "cosc 1010", "COSC-1010"},
		{"surrounding whitespace", "  MATH 1350 ", "MATH-1350"},
		{"multiple separators", "COSC -  2010", "COSC-2010"},
		{"tab separator", "COSC\t3020", "COSC-3020"},
		{"no separator", "COSC2010", "COSC-2010"},
		{"full width", "ＣＯＳＣ　２０１０", "COSC-2010"},
		{"legacy three digit", "COSC 051", "COSC-051"},
		{"sentinel key", "MATH-ELECTIVE-1", "MATH-ELECTIVE-1"},
		{"empty", "   ", ""},
		{"subject only", "COSC", "COSC"},
		{"number only", "2010", "2010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"COSC 2010", "cosc-1010", "MATH1350", " PHIL 099 ", "ＣＯＳＣ　２０１０",
		"COSC - 4 5 5", "", "A", "MATH-ELECTIVE",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeAll(t *testing.T) {
	t.Parallel()
	got := NormalizeAll([]string{"COSC 1010", "", "math 1350", "  "})
	assert.Equal(t, []string{"COSC-1010", "MATH-1350"}, got)
}

func TestSubject(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "COSC", Subject("cosc 2010"))
	assert.Equal(t, "MATH", Subject("MATH-1350"))
	assert.Equal(t, "PHIL", Subject("PHIL"))
}
