package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
)

var (
	t0 = time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func section(crn, schedule string) ScheduledCourse {
	return ScheduledCourse{
		Title:      "Course " + crn,
		CRN:        CRN(crn),
		Instructor: "Prof. Hopper",
		Schedule:   schedule,
	}
}

func TestCRN_UnmarshalJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    CRN
		wantErr bool
	}{
		{`"12345"`, "12345", false},
		{`" 12345 "`, "12345", false},
		{`12345`, "12345", false},
		{`null`, "", false},
		{`true`, "", true},
		{`["1"]`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			var got CRN
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalendar_UnmarshalTimestamps(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want time.Time
	}{
		{"rfc3339", `"2026-01-12T08:00:00Z"`, t0},
		{"rfc3339 with offset", `"2026-01-12T09:00:00+01:00"`, t0},
		{"zone-less microseconds", `"2025-02-03T10:11:12.123456"`, time.Date(2025, 2, 3, 10, 11, 12, 123456000, time.UTC)},
		{"zone-less seconds", `"2025-02-03T10:11:12"`, time.Date(2025, 2, 3, 10, 11, 12, 0, time.UTC)},
		{"space separated", `"2025-02-03 10:11:12.5"`, time.Date(2025, 2, 3, 10, 11, 12, 500000000, time.UTC)},
		{"null", `null`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cal Calendar
			require.NoError(t, json.Unmarshal([]byte(`{"courses": [], "last_updated": `+tt.ts+`}`), &cal))
			assert.True(t, tt.want.Equal(cal.LastUpdated), "got %v", cal.LastUpdated)
		})
	}

	var cal Calendar
	assert.Error(t, json.Unmarshal([]byte(`{"courses": [], "last_updated": "yesterday"}`), &cal))
}

func TestCalendar_Add(t *testing.T) {
	t.Parallel()
	cal := NewCalendar(t0)

	added, err := cal.Add(section("10001", "9:00 AM - 9:50 AM on Monday and Wednesday"), t1)
	require.NoError(t, err)
	assert.Equal(t, []int{Monday, Wednesday}, added.DaysOfWeek)
	assert.Equal(t, "9:00AM", added.StartTime)
	assert.Equal(t, "9:50AM", added.EndTime)
	assert.Equal(t, t1, cal.LastUpdated)
	require.Len(t, cal.Courses, 1)

	// Touching the previous course's end is allowed.
	_, err = cal.Add(section("10002", "9:50AM - 10:40AM on Monday"), t1)
	require.NoError(t, err)
	assert.Len(t, cal.Courses, 2)
}

func TestCalendar_AddRejections(t *testing.T) {
	t.Parallel()
	base := func() *Calendar {
		cal := NewCalendar(t0)
		_, err := cal.Add(section("10001", "9:00AM - 10:00AM on Monday and Wednesday"), t0)
		require.NoError(t, err)
		return cal
	}

	tests := []struct {
		name       string
		course     ScheduledCourse
		wantReason string
		wantCRN    string
		wantMsg    string
		invalid    bool
	}{
		{
			name:    "missing fields",
			course:  ScheduledCourse{CRN: "20000", Schedule: "  "},
			wantMsg: "Missing required fields: title, instructor, schedule",
			invalid: true,
		},
		{
			name:       "duplicate crn wins over bad format and overlap",
			course:     section("10001", "nonsense"),
			wantReason: domerrors.ReasonDuplicateCRN,
			wantCRN:    "10001",
			wantMsg:    "Course with CRN 10001 already exists",
		},
		{
			name:    "bad format wins over overlap",
			course:  section("20000", "Mondays at nine"),
			wantMsg: "Invalid course schedule format",
			invalid: true,
		},
		{
			name:       "overlap names colliding crn",
			course:     section("20000", "9:30AM - 10:30AM on Wednesday"),
			wantReason: domerrors.ReasonScheduleOverlap,
			wantCRN:    "10001",
			wantMsg:    "Course conflicts with existing schedule (CRN 10001)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cal := base()
			before := append([]ScheduledCourse(nil), cal.Courses...)

			_, err := cal.Add(tt.course, t1)
			require.Error(t, err)
			assert.Equal(t, before, cal.Courses, "schedule unchanged")
			assert.Equal(t, t0, cal.LastUpdated)

			if tt.invalid {
				var verr *domerrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantMsg, verr.Message)
				return
			}
			var cerr *domerrors.ConflictError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantReason, cerr.Reason)
			assert.Equal(t, tt.wantCRN, cerr.CRN)
			assert.Equal(t, tt.wantMsg, cerr.Message)
		})
	}
}

func TestCalendar_RemoveAndClear(t *testing.T) {
	t.Parallel()
	cal := NewCalendar(t0)
	for _, c := range []ScheduledCourse{
		section("1", "9:00AM - 9:50AM on Monday"),
		section("2", "10:00AM - 10:50AM on Monday"),
		section("3", "11:00AM - 11:50AM on Monday"),
	} {
		_, err := cal.Add(c, t0)
		require.NoError(t, err)
	}

	removed, err := cal.Remove("2", t1)
	require.NoError(t, err)
	assert.Equal(t, CRN("2"), removed.CRN)
	assert.Len(t, cal.Courses, 2)
	assert.Equal(t, t1, cal.LastUpdated)

	_, err = cal.Remove("2", t1)
	require.True(t, domerrors.IsNotFound(err))
	assert.EqualError(t, err, "Course with CRN 2 not found")

	assert.Equal(t, 2, cal.Clear(t1))
	assert.Empty(t, cal.Courses)
	assert.NotNil(t, cal.Courses)
	assert.Equal(t, 0, cal.Clear(t1))
}

func TestConflicts(t *testing.T) {
	t.Parallel()
	a := section("A", "9:00AM - 10:00AM on Tuesday")
	b := section("B", "9:30AM - 10:30AM on Tuesday and Thursday")
	c := section("C", "10:00AM - 11:00AM on Tuesday")

	meeting := func(sc ScheduledCourse) MeetingSpec {
		m, ok := sc.Meeting()
		require.True(t, ok)
		return m
	}

	pairs := []struct {
		x, y ScheduledCourse
		want bool
	}{
		{a, b, true},
		{a, c, false},
		{b, c, true},
	}
	for _, p := range pairs {
		assert.Equal(t, p.want, Conflicts([]ScheduledCourse{p.x}, meeting(p.y)))
		assert.Equal(t, p.want, Conflicts([]ScheduledCourse{p.y}, meeting(p.x)))
	}

	// Stored entries with unparseable times never conflict.
	legacy := ScheduledCourse{CRN: "L", Schedule: "TBA"}
	assert.False(t, Conflicts([]ScheduledCourse{legacy}, meeting(a)))
}

func TestScheduledCourse_MeetingPrefersStoredFields(t *testing.T) {
	t.Parallel()
	sc := ScheduledCourse{
		Schedule:   "garbled",
		DaysOfWeek: []int{Friday},
		StartTime:  "2:00PM",
		EndTime:    "3:15PM",
	}
	m, ok := sc.Meeting()
	require.True(t, ok)
	assert.Equal(t, []int{Friday}, m.Days)
	assert.Equal(t, Clock(14*60), m.Start)
}
