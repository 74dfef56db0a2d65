package requirements

import (
	"maps"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/garyellow/degree-planner/internal/course"
	"github.com/garyellow/degree-planner/internal/pattern"
	"github.com/garyellow/degree-planner/internal/sliceutil"
)

// mathElectiveSentinel marks a math requirement slot filled by any approved
// math elective rather than one specific course.
const mathElectiveSentinel = "ELECTIVE"

// RequiredProgress reports the required-courses bucket.
type RequiredProgress struct {
	Completed    int      `json:"completed"`
	Total        int      `json:"total"`
	Courses      []string `json:"courses"`
	Descriptions []string `json:"descriptions"`
	Missing      []string `json:"missing"`
}

// BucketProgress reports a capped bucket (math slots or electives).
type BucketProgress struct {
	Completed int      `json:"completed"`
	Required  int      `json:"required"`
	Courses   []string `json:"courses"`
}

// AdditionalProgress reports one named additional requirement.
type AdditionalProgress struct {
	BucketProgress
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Satisfied   bool   `json:"satisfied"`
}

// Report is the progress of one program.
type Report struct {
	Program                string                        `json:"program"`
	Kind                   Kind                          `json:"kind"`
	RequiredCourses        RequiredProgress              `json:"required_courses"`
	MathRequirements       *BucketProgress               `json:"math_requirements,omitempty"`
	Electives              *BucketProgress               `json:"electives,omitempty"`
	AdditionalRequirements map[string]AdditionalProgress `json:"additional_requirements,omitempty"`
	UnitsCompleted         int                           `json:"units_completed"`
	UnitsTotal             int                           `json:"units_total"`
	Progress               float64                       `json:"progress"`
}

// Evaluate computes the progress of completed courses against one program.
//
// Units: each required course, each math slot, each elective up to the
// elective required count, and each additional-requirement bucket. Math
// requirements are only evaluated for majors. mathElectives is the approved
// list used to fill ELECTIVE slots.
func Evaluate(completed []string, def *Program, kind Kind, mathElectives []string) Report {
	courses := sliceutil.Unique(course.NormalizeAll(completed))
	r := Report{Program: def.Name, Kind: kind}

	// Required courses.
	requiredKeys := slices.Sorted(maps.Keys(def.RequiredCourses))
	taken := make(map[string]bool, len(courses))
	for _, c := range courses {
		taken[c] = true
	}
	r.RequiredCourses = RequiredProgress{
		Total:        len(requiredKeys),
		Courses:      []string{},
		Descriptions: []string{},
		Missing:      []string{},
	}
	counted := make(map[string]bool)
	for _, c := range courses {
		if _, ok := def.RequiredCourses[c]; ok {
			r.RequiredCourses.Courses = append(r.RequiredCourses.Courses, c)
			r.RequiredCourses.Descriptions = append(r.RequiredCourses.Descriptions, def.RequiredCourses[c])
			counted[c] = true
		}
	}
	for _, k := range requiredKeys {
		if !taken[k] {
			r.RequiredCourses.Missing = append(r.RequiredCourses.Missing, k)
		}
	}
	r.RequiredCourses.Completed = len(r.RequiredCourses.Courses)
	r.UnitsCompleted += r.RequiredCourses.Completed
	r.UnitsTotal += r.RequiredCourses.Total

	// Math requirements. Named courses first, then approved electives fill
	// the sentinel slots in completion order.
	if kind == KindMajor && len(def.MathRequirements) > 0 {
		slots := 0
		for k := range def.MathRequirements {
			if strings.Contains(k, mathElectiveSentinel) {
				slots++
			}
		}
		m := &BucketProgress{Required: len(def.MathRequirements), Courses: []string{}}
		for _, c := range courses {
			if _, ok := def.MathRequirements[c]; ok && !strings.Contains(c, mathElectiveSentinel) {
				m.Courses = append(m.Courses, c)
				counted[c] = true
			}
		}
		approved := make(map[string]bool, len(mathElectives))
		for _, c := range mathElectives {
			approved[course.Normalize(c)] = true
		}
		for _, c := range courses {
			if slots == 0 {
				break
			}
			if approved[c] && !counted[c] {
				m.Courses = append(m.Courses, c)
				slots--
			}
		}
		m.Completed = len(m.Courses)
		r.MathRequirements = m
		r.UnitsCompleted += m.Completed
		r.UnitsTotal += m.Required
	}

	// General electives, capped at the required count.
	if def.Electives != nil {
		e := def.Electives
		matched := make([]string, 0)
		for _, c := range courses {
			if e.ExcludeRequired && counted[c] {
				continue
			}
			if pattern.MatchesAny(c, e.ValidPatterns) {
				matched = append(matched, c)
			}
		}
		done := min(len(matched), e.RequiredCount)
		r.Electives = &BucketProgress{
			Completed: done,
			Required:  e.RequiredCount,
			Courses:   matched[:done],
		}
		r.UnitsCompleted += done
		r.UnitsTotal += e.RequiredCount
	}

	// Additional requirements, each evaluated independently as one unit.
	if len(def.AdditionalRequirements) > 0 {
		r.AdditionalRequirements = make(map[string]AdditionalProgress, len(def.AdditionalRequirements))
		caser := cases.Title(language.English)
		for name, b := range def.AdditionalRequirements {
			matched := pattern.Filter(courses, b.ValidPatterns)
			done := min(len(matched), b.RequiredCount)
			ap := AdditionalProgress{
				BucketProgress: BucketProgress{
					Completed: done,
					Required:  b.RequiredCount,
					Courses:   append([]string{}, matched[:done]...),
				},
				Title:       caser.String(strings.ReplaceAll(name, "_", " ")),
				Description: b.Description,
				Satisfied:   len(matched) >= b.RequiredCount,
			}
			r.AdditionalRequirements[name] = ap
			if ap.Satisfied {
				r.UnitsCompleted++
			}
			r.UnitsTotal++
		}
	}

	r.Progress = Percentage(r.UnitsCompleted, r.UnitsTotal)
	return r
}

// Evaluate runs Evaluate with the catalog's approved math electives.
func (c *Catalog) Evaluate(completed []string, def *Program) Report {
	return Evaluate(completed, def, def.Kind, c.MathElectives())
}

// Percentage returns completed/total as a percentage rounded to two
// decimals. Zero total is 0%.
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}
