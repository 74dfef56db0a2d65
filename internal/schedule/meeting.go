// Package schedule maintains a conflict-free weekly class schedule per user.
package schedule

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Weekday ordinals used in daysOfWeek. Only weekdays are schedulable.
const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
)

var dayOrdinals = map[string]int{
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
}

// meetingRegex matches "<start> - <end> on <Day>[ and <Day>]*" anywhere in the
// text, e.g. "9:30 AM - 10:45 AM on Tuesday and Thursday".
var meetingRegex = regexp.MustCompile(
	`(?i)(\d{1,2}:\d{2}\s*(?:AM|PM))\s*-\s*` +
		`(\d{1,2}:\d{2}\s*(?:AM|PM))\s+on\s+` +
		`((?:Monday|Tuesday|Wednesday|Thursday|Friday)` +
		`(?:\s+and\s+(?:Monday|Tuesday|Wednesday|Thursday|Friday))*)`)

var (
	daySeparator = regexp.MustCompile(`(?i)\s+and\s+`)
	clockRegex   = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)$`)
)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses 12-hour times such as "9:00AM" or "12:15 pm".
func ParseClock(s string) (Clock, error) {
	m := clockRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hour %= 12
	if strings.EqualFold(m[3], "PM") {
		hour += 12
	}
	return Clock(hour*60 + minute), nil
}

// String renders the clock in the stored form, e.g. "9:00AM".
func (c Clock) String() string {
	hour, minute := int(c)/60, int(c)%60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour, minute, suffix)
}

// MeetingSpec is the structured form of a meeting-time description.
// The interval is half-open: [Start, End).
type MeetingSpec struct {
	Days  []int
	Start Clock
	End   Clock
}

// ParseMeeting extracts the meeting pattern from free text. It returns false,
// not an error, when the text does not contain a recognizable pattern or
// describes an empty interval.
func ParseMeeting(text string) (MeetingSpec, bool) {
	m := meetingRegex.FindStringSubmatch(text)
	if m == nil {
		return MeetingSpec{}, false
	}

	start, err := ParseClock(m[1])
	if err != nil {
		return MeetingSpec{}, false
	}
	end, err := ParseClock(m[2])
	if err != nil || end <= start {
		return MeetingSpec{}, false
	}

	var days []int
	for _, name := range daySeparator.Split(m[3], -1) {
		if d, ok := dayOrdinals[strings.ToLower(strings.TrimSpace(name))]; ok {
			days = append(days, d)
		}
	}
	slices.Sort(days)
	days = slices.Compact(days)
	if len(days) == 0 {
		return MeetingSpec{}, false
	}
	return MeetingSpec{Days: days, Start: start, End: end}, true
}

// Overlaps reports whether two meetings share a weekday and their half-open
// intervals intersect. Touching endpoints do not overlap.
func (m MeetingSpec) Overlaps(other MeetingSpec) bool {
	if m.Start >= other.End || m.End <= other.Start {
		return false
	}
	for _, d := range m.Days {
		if slices.Contains(other.Days, d) {
			return true
		}
	}
	return false
}
