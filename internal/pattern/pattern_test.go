package pattern

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern_Match(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		pattern Pattern
		code    string
		want    bool
	}{
		{"prefix matches range start", Prefix("COSC-2"), "COSC-2010", true},
		{"prefix matches range end", Prefix("COSC-2"), "COSC-2999", true},
		{"prefix rejects other level", Prefix("COSC-2"), "COSC-3010", false},
		{"prefix with space delimiter", Prefix("cosc 3"), "COSC-3450", true},
		{"prefix normalizes code", Prefix("COSC-2"), "cosc 2010", true},
		{"exact matches", Exact("COSC 1010"), "COSC-1010", true},
		{"exact rejects longer code", Exact("COSC-101"), "COSC-1010", false},
		{"regex anchored at start", MustRegex(`COSC-[2-4]\d{3}`), "COSC-4460", true},
		{"regex not searched mid-string", MustRegex(`2010`), "COSC-2010", false},
		{"regex is prefix not full match", MustRegex(`COSC-2`), "COSC-2010", true},
		{"regex dot star", MustRegex(`COSC-2.*`), "COSC-2020", true},
		{"regex leading caret tolerated", MustRegex(`^MATH-`), "MATH-1350", true},
		{"zero value matches all", Pattern{}, "PHIL-099", true},
		{"prefix without separator", Prefix("COSC2"), "COSC-2010", true},
		{"prefix without separator rejects other level", Prefix("cosc3"), "COSC-2010", false},
		{"prefix subject only", Prefix("cosc"), "COSC-2010", true},
		{"prefix trailing dash bounds subject", Prefix("MATH-"), "MATHX-1010", false},
		{"prefix trailing dash matches subject", Prefix("math-"), "MATH-1350", true},
		{"lowercase regex", MustRegex(`cosc-2\d+`), "COSC-2010", true},
		{"lowercase regex rejects other level", MustRegex(`cosc-2\d+`), "COSC-3010", false},
		{"mixed case regex on spaced code", MustRegex(`Math-1[0-9]{3}`), "math 1350", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.pattern.Match(tt.code))
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		wantKind Kind
		wantErr  bool
	}{
		{"COSC-2", KindPrefix, false},
		{"COSC 3", KindPrefix, false},
		{"COSC-2.*", KindRegex, false},
		{`COSC-[34]\d{3}`, KindRegex, false},
		{"COSC-(", KindRegex, true},
		{"  ", KindPrefix, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			p, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, p.Kind())
		})
	}
}

func TestMatchesAny(t *testing.T) {
	t.Parallel()
	patterns, err := ParseAll([]string{"COSC-2", "COSC-3", `COSC-4\d{3}`})
	require.NoError(t, err)

	assert.True(t, MatchesAny("COSC 2010", patterns))
	assert.True(t, MatchesAny("COSC-4460", patterns))
	assert.False(t, MatchesAny("COSC-1010", patterns))
	assert.False(t, MatchesAny("MATH-2010", patterns))
	assert.False(t, MatchesAny("COSC-2010", nil))

	assert.Equal(t, []string{"COSC-2010", "COSC 3020"},
		Filter([]string{"COSC-1010", "COSC-2010", "COSC 3020"}, patterns))
}

func TestPattern_JSON(t *testing.T) {
	t.Parallel()
	var got []Pattern
	data := `["COSC-2", "COSC-3.*", {"exact": "MATH 1350"}, {"prefix": "PHIL-1"}, {"regex": "MATH-[23]"}]`
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	require.Len(t, got, 5)

	assert.Equal(t, KindPrefix, got[0].Kind())
	assert.Equal(t, KindRegex, got[1].Kind())
	assert.Equal(t, KindExact, got[2].Kind())
	assert.True(t, got[2].Match("MATH-1350"))
	assert.Equal(t, KindPrefix, got[3].Kind())
	assert.True(t, got[4].Match("MATH-3010"))

	out, err := json.Marshal(got[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"exact":"MATH-1350"}`, string(out))

	var bad Pattern
	assert.Error(t, json.Unmarshal([]byte(`{"fuzzy":"COSC"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"exact":"a","prefix":"b"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}
