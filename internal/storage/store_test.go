package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/schedule"
)

func strPtr(s string) *string { return &s }

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	return map[string]Store{
		"sqlite": db,
		"file":   fs,
	}
}

func sampleCalendar() *schedule.Calendar {
	return &schedule.Calendar{
		Courses: []schedule.ScheduledCourse{
			{
				Title:      "Data Structures",
				CRN:        "40012",
				Instructor: "Hopper",
				Schedule:   "MWF 10:00am-10:50am",
				DaysOfWeek: []int{1, 3, 5},
				StartTime:  "10:00AM",
				EndTime:    "10:50AM",
			},
			{
				Title:      "Algorithms",
				CRN:        "30001",
				Instructor: "Knuth",
				Schedule:   "TR 1:00pm-2:15pm",
				DaysOfWeek: []int{2, 4},
				StartTime:  "1:00PM",
				EndTime:    "2:15PM",
			},
		},
		LastUpdated: time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestStore_ProfileNotFound(t *testing.T) {
	t.Parallel()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.GetProfile(context.Background(), "nobody")
			require.Error(t, err)
			assert.True(t, domerrors.IsNotFound(err))
		})
	}
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	t.Parallel()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := &profile.Profile{
				Name:             strPtr("Ada"),
				Grade:            strPtr("Junior"),
				Majors:           []string{"Bachelor of Science in Computer Science"},
				Minors:           []string{},
				CoursesCompleted: []string{"COSC-1010", "MATH-1350"},
			}
			require.NoError(t, store.SaveProfile(ctx, "ada", p))

			got, err := store.GetProfile(ctx, "ada")
			require.NoError(t, err)
			assert.Equal(t, p, got)
			assert.Nil(t, got.School)

			p.CoursesCompleted = append(p.CoursesCompleted, "COSC-1020")
			require.NoError(t, store.SaveProfile(ctx, "ada", p))
			got, err = store.GetProfile(ctx, "ada")
			require.NoError(t, err)
			assert.Equal(t, []string{"COSC-1010", "MATH-1350", "COSC-1020"}, got.CoursesCompleted)
		})
	}
}

func TestStore_CalendarRoundTrip(t *testing.T) {
	t.Parallel()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.GetCalendar(ctx, "grace")
			assert.True(t, domerrors.IsNotFound(err))

			cal := sampleCalendar()
			require.NoError(t, store.SaveCalendar(ctx, "grace", cal))

			got, err := store.GetCalendar(ctx, "grace")
			require.NoError(t, err)
			assert.Equal(t, cal.Courses, got.Courses)
			assert.True(t, cal.LastUpdated.Equal(got.LastUpdated))

			// Removing a course and saving again drops it.
			cal.Courses = cal.Courses[1:]
			require.NoError(t, store.SaveCalendar(ctx, "grace", cal))
			got, err = store.GetCalendar(ctx, "grace")
			require.NoError(t, err)
			require.Len(t, got.Courses, 1)
			assert.Equal(t, schedule.CRN("30001"), got.Courses[0].CRN)

			// An empty calendar still exists.
			cal.Courses = []schedule.ScheduledCourse{}
			require.NoError(t, store.SaveCalendar(ctx, "grace", cal))
			got, err = store.GetCalendar(ctx, "grace")
			require.NoError(t, err)
			assert.NotNil(t, got.Courses)
			assert.Empty(t, got.Courses)
		})
	}
}

func TestStore_UsersAreIsolated(t *testing.T) {
	t.Parallel()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.SaveCalendar(ctx, "u1", sampleCalendar()))

			_, err := store.GetCalendar(ctx, "u2")
			assert.True(t, domerrors.IsNotFound(err))

			// Same CRN for a different user is independent.
			require.NoError(t, store.SaveCalendar(ctx, "u2", sampleCalendar()))
			got, err := store.GetCalendar(ctx, "u2")
			require.NoError(t, err)
			assert.Len(t, got.Courses, 2)
		})
	}
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, store.Ping(context.Background()))
		})
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	s, err := Open(ctx, BackendSQLite, dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, DatabaseFile))

	s, err = Open(ctx, BackendFile, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, "postgres", dir)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestFileStore_Layout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	fs, err := NewFileStore(root)
	require.NoError(t, err)

	require.NoError(t, fs.SaveProfile(ctx, "ada", profile.Default()))
	require.NoError(t, fs.SaveCalendar(ctx, "ada", sampleCalendar()))

	data, err := os.ReadFile(filepath.Join(root, ProfilesDir, "ada.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n    \"name\": null"), "want 4-space indent, got %s", data)

	assert.FileExists(t, filepath.Join(root, CalendarsDir, "ada.json"))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(root, ProfilesDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptFileIsReportedAndKept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	fs, err := NewFileStore(root)
	require.NoError(t, err)

	profilePath := filepath.Join(root, ProfilesDir, "ada.json")
	calendarPath := filepath.Join(root, CalendarsDir, "ada.json")
	require.NoError(t, os.WriteFile(profilePath, []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(calendarPath, []byte(`{"courses": [], "last_updated": "last tuesday"}`), 0o644))

	_, err = fs.GetProfile(ctx, "ada")
	require.Error(t, err)
	assert.False(t, domerrors.IsNotFound(err))
	assert.ErrorIs(t, err, errCorrupt)

	_, err = fs.GetCalendar(ctx, "ada")
	require.Error(t, err)
	assert.False(t, domerrors.IsNotFound(err))

	// The schedule service must not replace the unreadable file with an empty one.
	_, err = schedule.NewService(fs, nil, nil, nil).View(ctx, "ada")
	require.Error(t, err)
	raw, err := os.ReadFile(calendarPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "last tuesday")
}

func TestFileStore_OriginalCalendarLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	fs, err := NewFileStore(root)
	require.NoError(t, err)

	raw := `{
    "courses": [
        {
            "title": "Operating Systems",
            "crn": 40012,
            "instructor": "Prof. Ritchie",
            "schedule": "11:00 AM - 12:15 PM on Tuesday and Thursday",
            "daysOfWeek": [2, 4],
            "startTime": "11:00AM",
            "endTime": "12:15PM"
        }
    ],
    "last_updated": "2025-02-03T10:11:12.123456"
}`
	path := filepath.Join(root, CalendarsDir, "alice.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cal, err := fs.GetCalendar(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cal.Courses, 1)
	assert.Equal(t, schedule.CRN("40012"), cal.Courses[0].CRN)
	assert.Equal(t, time.Date(2025, 2, 3, 10, 11, 12, 123456000, time.UTC), cal.LastUpdated)

	res, err := schedule.NewService(fs, nil, nil, nil).View(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, res.Courses, 1)
	assert.Equal(t, "Operating Systems", res.Courses[0].Title)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, string(after), "viewing must not rewrite the file")
}

func TestFileStore_DuplicateCRNKeepsFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	fs, err := NewFileStore(root)
	require.NoError(t, err)

	raw := `{"courses": [
		{"title": "Compilers", "crn": "40001", "instructor": "Hopper", "schedule": "9:00 AM - 9:50 AM on Monday"},
		{"title": "Compilers (copy)", "crn": "40001", "instructor": "Hopper", "schedule": "9:00 AM - 9:50 AM on Monday"},
		{"title": "Databases", "crn": 40002, "instructor": "Codd", "schedule": "1:00 PM - 2:15 PM on Tuesday"}
	], "last_updated": "2026-01-05T10:00:00Z"}`
	require.NoError(t, os.WriteFile(filepath.Join(root, CalendarsDir, "ada.json"), []byte(raw), 0o644))

	cal, err := fs.GetCalendar(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, cal.Courses, 2)
	assert.Equal(t, "Compilers", cal.Courses[0].Title)
	assert.Equal(t, schedule.CRN("40002"), cal.Courses[1].CRN)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	t.Parallel()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"../etc", "a/b", "", ".hidden"} {
		err := fs.SaveProfile(context.Background(), id, profile.Default())
		assert.True(t, domerrors.IsInvalidInput(err), "id %q", id)
	}
}

func TestDB_BackupTo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := New(ctx, filepath.Join(dir, "src.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, db.SaveProfile(ctx, "ada", profile.Default()))

	dest := filepath.Join(dir, "snap", "copy.db")
	require.NoError(t, db.BackupTo(ctx, dest))

	copyDB, err := New(ctx, dest)
	require.NoError(t, err)
	defer func() { _ = copyDB.Close() }()

	profiles, calendars, err := copyDB.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, profiles)
	assert.Equal(t, 0, calendars)

	mem, err := NewTestDB()
	require.NoError(t, err)
	defer func() { _ = mem.Close() }()
	assert.Error(t, mem.BackupTo(ctx, filepath.Join(dir, "mem.db")))
}

func TestNew_NestedDirectory(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "sub1", "sub2", "test.db")

	db, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
}
