package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/keylock"
	"github.com/garyellow/degree-planner/internal/logger"
	"github.com/garyellow/degree-planner/internal/metrics"
)

// ModuleName identifies this package in logs and metrics.
const ModuleName = "schedule"

// Repository persists one calendar per user. GetCalendar returns an error
// matching domerrors.ErrNotFound when the user has no calendar yet.
type Repository interface {
	GetCalendar(ctx context.Context, userID string) (*Calendar, error)
	SaveCalendar(ctx context.Context, userID string, cal *Calendar) error
}

// Result is the outcome of a successful schedule operation.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Course  *ScheduledCourse  `json:"course,omitempty"`
	Courses []ScheduledCourse `json:"courses,omitempty"`
	Removed int               `json:"removed,omitempty"`
}

// Service runs schedule operations under a per-user lock.
type Service struct {
	repo    Repository
	locks   *keylock.KeyedMutex
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewService creates a schedule service. metrics and log may be nil.
func NewService(repo Repository, locks *keylock.KeyedMutex, m *metrics.Metrics, log *logger.Logger) *Service {
	if locks == nil {
		locks = keylock.New()
	}
	return &Service{
		repo:    repo,
		locks:   locks,
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
}

// load returns the user's calendar, creating and persisting an empty one on
// first access. Callers must hold the user's lock.
func (s *Service) load(ctx context.Context, userID string) (*Calendar, error) {
	cal, err := s.repo.GetCalendar(ctx, userID)
	if err == nil {
		if cal.Courses == nil {
			cal.Courses = []ScheduledCourse{}
		}
		return cal, nil
	}
	if !domerrors.IsNotFound(err) {
		return nil, domerrors.NewWrapper(ModuleName, "load").Wrap(err, "Failed to load schedule")
	}

	cal = NewCalendar(s.now())
	if err := s.repo.SaveCalendar(ctx, userID, cal); err != nil {
		return nil, domerrors.NewWrapper(ModuleName, "create").Wrap(err, "Failed to create schedule")
	}
	return cal, nil
}

func (s *Service) save(ctx context.Context, userID, op string, cal *Calendar) error {
	if err := s.repo.SaveCalendar(ctx, userID, cal); err != nil {
		return domerrors.NewWrapper(ModuleName, op).Wrap(err, "Failed to save schedule")
	}
	return nil
}

// mutate runs fn on the user's calendar under the user's lock and records the
// outcome.
func (s *Service) mutate(ctx context.Context, userID, op string, fn func(*Calendar) (*Result, error)) (*Result, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res, err := func() (*Result, error) {
		cal, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		return fn(cal)
	}()
	s.record(op, err)
	if err != nil && s.logger != nil {
		s.logger.WithModule(ModuleName).WithError(err).DebugContext(ctx, "Schedule operation rejected",
			"user_id", userID, "operation", op)
	}
	return res, err
}

// Add admits a course section. Rejections return a ValidationError (missing
// fields, unparseable schedule) or a ConflictError (duplicate CRN, overlap).
func (s *Service) Add(ctx context.Context, userID string, course ScheduledCourse) (*Result, error) {
	return s.mutate(ctx, userID, "add", func(cal *Calendar) (*Result, error) {
		added, err := cal.Add(course, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.save(ctx, userID, "add_course", cal); err != nil {
			return nil, err
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Added %s to schedule", added.Title),
			Course:  &added,
		}, nil
	})
}

// Remove deletes the course with the given CRN.
func (s *Service) Remove(ctx context.Context, userID string, crn CRN) (*Result, error) {
	return s.mutate(ctx, userID, "remove", func(cal *Calendar) (*Result, error) {
		removed, err := cal.Remove(crn, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.save(ctx, userID, "remove_course", cal); err != nil {
			return nil, err
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Removed course with CRN %s", crn),
			Course:  &removed,
		}, nil
	})
}

// Clear removes every course. An empty schedule is reported, not persisted.
func (s *Service) Clear(ctx context.Context, userID string) (*Result, error) {
	return s.mutate(ctx, userID, "clear", func(cal *Calendar) (*Result, error) {
		n := cal.Clear(s.now())
		if n == 0 {
			return &Result{Success: true, Message: "Schedule is already empty"}, nil
		}
		if err := s.save(ctx, userID, "clear_schedule", cal); err != nil {
			return nil, err
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Removed %d courses from schedule", n),
			Removed: n,
		}, nil
	})
}

// View returns the user's courses. The first view creates and persists an
// empty calendar so later reads see the same record.
func (s *Service) View(ctx context.Context, userID string) (*Result, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cal, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &Result{Success: true, Courses: cal.Courses}
	if len(cal.Courses) == 0 {
		res.Message = "No courses in schedule"
	}
	return res, nil
}

// Calendar returns the user's calendar record, including last_updated.
func (s *Service) Calendar(ctx context.Context, userID string) (*Calendar, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.load(ctx, userID)
}

func (s *Service) record(op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordScheduleOperation(op, ResultLabel(err))
	}
}

// ResultLabel classifies an operation outcome for metrics.
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}
	var conflict *domerrors.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Reason
	}
	var verr *domerrors.ValidationError
	if errors.As(err, &verr) {
		if verr.Message == msgInvalidFormat {
			return "invalid_format"
		}
		return "invalid_input"
	}
	if domerrors.IsNotFound(err) {
		return "not_found"
	}
	return "error"
}
