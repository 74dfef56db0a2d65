package requirements

import (
	"strings"
)

// Summary is the combined progress across one or more programs.
type Summary struct {
	Programs        []Report `json:"programs"`
	UnitsCompleted  int      `json:"units_completed"`
	UnitsTotal      int      `json:"units_total"`
	OverallProgress float64  `json:"overall_progress"`
}

// CheckProgress evaluates completed courses against the declared majors and
// minors, or against program alone when it is non-empty. The program need not
// be declared.
//
// Overall progress sums units across programs before dividing, so a large
// major outweighs a small minor. No declared programs yields 0% with an empty
// report list.
func (c *Catalog) CheckProgress(completed, majors, minors []string, program string) (Summary, error) {
	courses := c.Remapper().NormalizeCourseNumbers(completed)

	var defs []*Program
	if strings.TrimSpace(program) != "" {
		p, ok := c.Lookup(program)
		if !ok {
			return Summary{}, c.unknownProgram(program)
		}
		defs = append(defs, p)
	} else {
		// Declared programs missing from the catalog are skipped. This
		// happens when a reload drops a program that profiles still name.
		for _, name := range majors {
			if p, ok := c.Majors[name]; ok {
				defs = append(defs, p)
			}
		}
		for _, name := range minors {
			if p, ok := c.Minors[name]; ok {
				defs = append(defs, p)
			}
		}
	}

	s := Summary{Programs: make([]Report, 0, len(defs))}
	for _, p := range defs {
		r := c.Evaluate(courses, p)
		s.Programs = append(s.Programs, r)
		s.UnitsCompleted += r.UnitsCompleted
		s.UnitsTotal += r.UnitsTotal
	}
	s.OverallProgress = Percentage(s.UnitsCompleted, s.UnitsTotal)
	return s, nil
}
