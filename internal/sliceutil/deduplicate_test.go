package sliceutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type section struct {
	CRN   string
	Title string
}

func byCRN(s section) string { return s.CRN }

func TestDeduplicate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		items []section
		want  []section
	}{
		{
			name:  "distinct keys untouched",
			items: []section{{"40001", "Compilers"}, {"40002", "Databases"}},
			want:  []section{{"40001", "Compilers"}, {"40002", "Databases"}},
		},
		{
			name:  "first occurrence wins",
			items: []section{{"40002", "Databases"}, {"40001", "Compilers"}, {"40002", "Databases (lab)"}},
			want:  []section{{"40002", "Databases"}, {"40001", "Compilers"}},
		},
		{
			name:  "all the same key",
			items: []section{{"1", "a"}, {"1", "b"}, {"1", "c"}},
			want:  []section{{"1", "a"}},
		},
		{
			name:  "empty",
			items: []section{},
			want:  []section{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Deduplicate(tt.items, byCRN))
		})
	}
}

func TestDeduplicate_DoesNotAliasInput(t *testing.T) {
	t.Parallel()
	in := []section{{"1", "a"}, {"1", "b"}, {"2", "c"}}
	out := Deduplicate(in, byCRN)
	out[0].Title = "changed"
	assert.Equal(t, "a", in[0].Title)
	assert.Equal(t, section{"1", "b"}, in[1])
}

func TestDeduplicate_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Deduplicate[section](nil, byCRN))
}

func BenchmarkDeduplicate(b *testing.B) {
	items := make([]section, 1000)
	for i := range items {
		items[i] = section{CRN: strconv.Itoa(i % 100)}
	}
	for b.Loop() {
		_ = Deduplicate(items, byCRN)
	}
}
