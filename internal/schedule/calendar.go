package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/validate"
)

// Result messages.
const (
	msgInvalidFormat = "Invalid course schedule format"
	msgOverlap       = "Course conflicts with existing schedule"
)

// CRN is a course reference number. It decodes from a JSON string or number
// and is always stored as a string.
type CRN string

// UnmarshalJSON accepts "12345" or 12345.
func (c *CRN) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = CRN(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("crn must be a string or number: %w", err)
	}
	*c = CRN(n.String())
	return nil
}

// ScheduledCourse is one course section on a user's schedule. Entries are
// never edited in place; remove and re-add to change one.
type ScheduledCourse struct {
	Title      string `json:"title" validate:"required"`
	CRN        CRN    `json:"crn" validate:"required"`
	Instructor string `json:"instructor" validate:"required"`
	Schedule   string `json:"schedule" validate:"required"`
	DaysOfWeek []int  `json:"daysOfWeek"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// Meeting returns the structured meeting time, preferring the stored fields
// and falling back to parsing the schedule text.
func (c ScheduledCourse) Meeting() (MeetingSpec, bool) {
	if len(c.DaysOfWeek) > 0 {
		start, err1 := ParseClock(c.StartTime)
		end, err2 := ParseClock(c.EndTime)
		if err1 == nil && err2 == nil {
			return MeetingSpec{Days: c.DaysOfWeek, Start: start, End: end}, true
		}
	}
	return ParseMeeting(c.Schedule)
}

// Calendar is a user's schedule. The zero value is an empty schedule.
type Calendar struct {
	Courses     []ScheduledCourse `json:"courses"`
	LastUpdated time.Time         `json:"last_updated"`
}

// timestampLayouts are the accepted forms of last_updated. Older files carry
// a naive local timestamp with no zone, read here as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a last_updated value in any accepted layout.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("schedule: unrecognized timestamp %q", s)
}

// UnmarshalJSON decodes a calendar, accepting zone-less last_updated values.
// A null or missing last_updated leaves the zero time.
func (cal *Calendar) UnmarshalJSON(data []byte) error {
	var raw struct {
		Courses     []ScheduledCourse `json:"courses"`
		LastUpdated *string           `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var ts time.Time
	if raw.LastUpdated != nil && *raw.LastUpdated != "" {
		var err error
		if ts, err = ParseTimestamp(*raw.LastUpdated); err != nil {
			return err
		}
	}
	*cal = Calendar{Courses: raw.Courses, LastUpdated: ts}
	return nil
}

// NewCalendar returns an empty calendar stamped with now.
func NewCalendar(now time.Time) *Calendar {
	return &Calendar{Courses: []ScheduledCourse{}, LastUpdated: now}
}

// Conflicts reports whether candidate overlaps any existing course.
func Conflicts(existing []ScheduledCourse, candidate MeetingSpec) bool {
	_, ok := FindConflict(existing, candidate)
	return ok
}

// FindConflict returns the first existing course overlapping candidate.
// Existing entries without a parseable meeting time never conflict.
func FindConflict(existing []ScheduledCourse, candidate MeetingSpec) (ScheduledCourse, bool) {
	for _, c := range existing {
		m, ok := c.Meeting()
		if ok && candidate.Overlaps(m) {
			return c, true
		}
	}
	return ScheduledCourse{}, false
}

// Find returns the course with the given CRN.
func (cal *Calendar) Find(crn CRN) (ScheduledCourse, bool) {
	i := slices.IndexFunc(cal.Courses, func(c ScheduledCourse) bool { return c.CRN == crn })
	if i < 0 {
		return ScheduledCourse{}, false
	}
	return cal.Courses[i], true
}

// Add admits course if it is valid, its CRN is new, its schedule text parses
// and it overlaps nothing. Checks run in exactly that order so the reported
// error is deterministic. On success the stored entry carries the parsed
// days and times.
func (cal *Calendar) Add(course ScheduledCourse, now time.Time) (ScheduledCourse, error) {
	course.Title = strings.TrimSpace(course.Title)
	course.Instructor = strings.TrimSpace(course.Instructor)
	course.Schedule = strings.TrimSpace(course.Schedule)
	if err := validate.Struct(course); err != nil {
		return ScheduledCourse{}, err
	}

	if _, exists := cal.Find(course.CRN); exists {
		return ScheduledCourse{}, domerrors.NewConflictError(domerrors.ReasonDuplicateCRN, string(course.CRN),
			fmt.Sprintf("Course with CRN %s already exists", course.CRN))
	}

	meeting, ok := ParseMeeting(course.Schedule)
	if !ok {
		return ScheduledCourse{}, domerrors.NewValidationError("schedule", msgInvalidFormat)
	}

	if other, clash := FindConflict(cal.Courses, meeting); clash {
		return ScheduledCourse{}, domerrors.NewConflictError(domerrors.ReasonScheduleOverlap, string(other.CRN),
			fmt.Sprintf("%s (CRN %s)", msgOverlap, other.CRN))
	}

	course.DaysOfWeek = meeting.Days
	course.StartTime = meeting.Start.String()
	course.EndTime = meeting.End.String()
	cal.Courses = append(cal.Courses, course)
	cal.LastUpdated = now
	return course, nil
}

// Remove deletes the course with the given CRN.
func (cal *Calendar) Remove(crn CRN, now time.Time) (ScheduledCourse, error) {
	i := slices.IndexFunc(cal.Courses, func(c ScheduledCourse) bool { return c.CRN == crn })
	if i < 0 {
		return ScheduledCourse{}, domerrors.NewNotFoundError("course", string(crn),
			fmt.Sprintf("Course with CRN %s not found", crn))
	}
	removed := cal.Courses[i]
	cal.Courses = slices.Delete(cal.Courses, i, i+1)
	cal.LastUpdated = now
	return removed, nil
}

// Clear empties the schedule and returns how many courses were removed.
// Clearing an empty schedule changes nothing.
func (cal *Calendar) Clear(now time.Time) int {
	n := len(cal.Courses)
	if n == 0 {
		return 0
	}
	cal.Courses = []ScheduledCourse{}
	cal.LastUpdated = now
	return n
}
