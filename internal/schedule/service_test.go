package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/keylock"
	"github.com/garyellow/degree-planner/internal/metrics"
)

type memoryRepo struct {
	mu        sync.Mutex
	calendars map[string]Calendar
	saves     int
	getErr    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{calendars: make(map[string]Calendar)}
}

func (r *memoryRepo) GetCalendar(_ context.Context, userID string) (*Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	cal, ok := r.calendars[userID]
	if !ok {
		return nil, domerrors.NewNotFoundError("calendar", userID, "")
	}
	cal.Courses = append([]ScheduledCourse(nil), cal.Courses...)
	return &cal, nil
}

func (r *memoryRepo) SaveCalendar(_ context.Context, userID string, cal *Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cal
	c.Courses = append([]ScheduledCourse(nil), cal.Courses...)
	r.calendars[userID] = c
	r.saves++
	return nil
}

func newTestService(repo Repository) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(repo, keylock.New(), m, nil)
	svc.now = func() time.Time { return t0 }
	return svc, m
}

func TestService_ViewCreatesLazily(t *testing.T) {
	t.Parallel()
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	res, err := svc.View(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "No courses in schedule", res.Message)
	assert.Empty(t, res.Courses)
	assert.Equal(t, 1, repo.saves, "first view persists an empty calendar")

	_, err = svc.View(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.saves, "later views do not write")

	cal, err := svc.Calendar(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, t0, cal.LastUpdated)
}

func TestService_Lifecycle(t *testing.T) {
	t.Parallel()
	repo := newMemoryRepo()
	svc, m := newTestService(repo)
	ctx := context.Background()

	res, err := svc.Add(ctx, "alice", section("100", "9:00AM - 9:50AM on Monday"))
	require.NoError(t, err)
	assert.Equal(t, "Added Course 100 to schedule", res.Message)
	assert.Equal(t, "9:00AM", res.Course.StartTime)

	_, err = svc.Add(ctx, "alice", section("100", "1:00PM - 1:50PM on Friday"))
	require.True(t, domerrors.IsConflict(err))

	_, err = svc.Add(ctx, "alice", section("200", "9:50AM - 10:40AM on Monday"))
	require.NoError(t, err)

	view, err := svc.View(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, view.Courses, 2)
	assert.Empty(t, view.Message)

	res, err = svc.Remove(ctx, "alice", "100")
	require.NoError(t, err)
	assert.Equal(t, "Removed course with CRN 100", res.Message)

	_, err = svc.Remove(ctx, "alice", "100")
	require.True(t, domerrors.IsNotFound(err))

	res, err = svc.Clear(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 courses from schedule", res.Message)
	assert.Equal(t, 1, res.Removed)

	res, err = svc.Clear(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Schedule is already empty", res.Message)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ScheduleOperationsTotal.WithLabelValues("add", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScheduleOperationsTotal.WithLabelValues("add", "duplicate_crn")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScheduleOperationsTotal.WithLabelValues("remove", "not_found")), 0)
}

func TestService_UsersIndependent(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice", section("100", "9:00AM - 9:50AM on Monday"))
	require.NoError(t, err)
	_, err = svc.Add(ctx, "bob", section("100", "9:00AM - 9:50AM on Monday"))
	require.NoError(t, err, "same crn and time for another user is fine")
}

func TestService_ConcurrentAddsNoOverlapAdmitted(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	// Every candidate overlaps every other, so exactly one may be admitted.
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := range 10 {
		wg.Go(func() {
			_, err := svc.Add(ctx, "alice", section(fmt.Sprint(i), "9:00AM - 10:00AM on Tuesday"))
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
}

func TestService_RepositoryFailure(t *testing.T) {
	t.Parallel()
	repo := newMemoryRepo()
	repo.getErr = errors.New("database is locked")
	svc, _ := newTestService(repo)

	_, err := svc.View(context.Background(), "alice")
	require.Error(t, err)
	assert.Equal(t, "Failed to load schedule", domerrors.GetUserMessage(err))
	assert.Equal(t, "error", ResultLabel(err))
}

func TestResultLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "success", ResultLabel(nil))
	assert.Equal(t, "duplicate_crn", ResultLabel(domerrors.NewConflictError(domerrors.ReasonDuplicateCRN, "1", "")))
	assert.Equal(t, "schedule_overlap", ResultLabel(domerrors.NewConflictError(domerrors.ReasonScheduleOverlap, "1", "")))
	assert.Equal(t, "invalid_format", ResultLabel(domerrors.NewValidationError("schedule", msgInvalidFormat)))
	assert.Equal(t, "invalid_input", ResultLabel(domerrors.MissingFieldsError([]string{"title"})))
	assert.Equal(t, "not_found", ResultLabel(domerrors.NewNotFoundError("course", "1", "")))
}
