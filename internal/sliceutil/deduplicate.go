// Package sliceutil provides generic slice helpers that treat slices as
// ordered sets.
package sliceutil

// Deduplicate keeps the first item for each key, in input order.
//
//	sliceutil.Deduplicate(courses, func(c schedule.ScheduledCourse) schedule.CRN { return c.CRN })
func Deduplicate[T any, K comparable](items []T, key func(T) K) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[K]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Unique is Deduplicate keyed on the items themselves.
func Unique[T comparable](items []T) []T {
	return Deduplicate(items, func(v T) T { return v })
}
