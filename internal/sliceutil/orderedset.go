package sliceutil

// Union returns base followed by the items of add not already present.
// The result is duplicate-free and keeps first-seen order.
func Union[T comparable](base, add []T) []T {
	out := make([]T, 0, len(base)+len(add))
	seen := make(map[T]bool, len(base)+len(add))
	for _, items := range [][]T{base, add} {
		for _, v := range items {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Subtract returns the items of base not present in remove, preserving order.
func Subtract[T comparable](base, remove []T) []T {
	drop := make(map[T]bool, len(remove))
	for _, v := range remove {
		drop[v] = true
	}
	out := make([]T, 0, len(base))
	for _, v := range base {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}
