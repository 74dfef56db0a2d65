package course

// Remapper translates legacy course numbers (e.g. 3-digit "COSC-051") to their
// current equivalents ("COSC-1010"). Keys and values are canonical codes.
type Remapper struct {
	table map[string]string
}

// NewRemapper builds a Remapper from a legacy-to-current table.
// Both sides are normalized, so the table may use either delimiter.
func NewRemapper(table map[string]string) *Remapper {
	r := &Remapper{table: make(map[string]string, len(table))}
	for legacy, current := range table {
		from, to := Normalize(legacy), Normalize(current)
		if from == "" || to == "" {
			continue
		}
		r.table[from] = to
	}
	return r
}

// Remap returns the current code for a legacy code, or the normalized input
// when the code is not in the table.
func (r *Remapper) Remap(code string) string {
	n := Normalize(code)
	if r == nil {
		return n
	}
	if current, ok := r.table[n]; ok {
		return current
	}
	return n
}

// NormalizeCourseNumbers normalizes and remaps every code, preserving order.
// Codes not found in the table pass through with dash normalization applied.
func (r *Remapper) NormalizeCourseNumbers(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if n := r.Remap(c); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of legacy entries.
func (r *Remapper) Len() int {
	if r == nil {
		return 0
	}
	return len(r.table)
}
