package profile

import (
	"context"
	"strings"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/keylock"
	"github.com/garyellow/degree-planner/internal/logger"
	"github.com/garyellow/degree-planner/internal/metrics"
)

// ModuleName identifies this package in logs and metrics.
const ModuleName = "profile"

// Repository persists one profile per user. GetProfile returns an error
// matching domerrors.ErrNotFound when the user has no profile.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	SaveProfile(ctx context.Context, userID string, p *Profile) error
}

// Result is the outcome of a successful update.
type Result struct {
	Profile *Profile `json:"profile"`
	Fields  []string `json:"fields"`
	Message string   `json:"message"`
}

// Service reads and updates profiles. Updates for one user are serialized;
// different users never contend.
type Service struct {
	repo     Repository
	programs func() Programs
	locks    *keylock.KeyedMutex
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewService creates a profile service. programs is called on every update so
// a reloaded catalog takes effect immediately. metrics and log may be nil.
func NewService(repo Repository, programs func() Programs, locks *keylock.KeyedMutex, m *metrics.Metrics, log *logger.Logger) *Service {
	if locks == nil {
		locks = keylock.New()
	}
	return &Service{
		repo:     repo,
		programs: programs,
		locks:    locks,
		metrics:  m,
		logger:   log,
	}
}

// Read returns the user's profile, or the default empty profile when none
// exists. A missing profile is never an error.
func (s *Service) Read(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if domerrors.IsNotFound(err) {
			return Default(), nil
		}
		return nil, domerrors.NewWrapper(ModuleName, "read").Wrap(err, "Failed to load profile")
	}
	p.fillNil()
	return p, nil
}

// Update applies updates atomically: either every field changes and the
// profile is saved, or nothing is persisted and a validation error returns.
func (s *Service) Update(ctx context.Context, userID string, updates Updates) (*Result, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := s.Read(ctx, userID)
	if err != nil {
		s.record("error")
		return nil, err
	}

	next, err := Apply(current, updates, s.programs())
	if err != nil {
		s.record("rejected")
		return nil, err
	}

	if err := s.repo.SaveProfile(ctx, userID, next); err != nil {
		s.record("error")
		return nil, domerrors.NewWrapper(ModuleName, "update").Wrap(err, "Failed to save profile")
	}
	s.record("success")

	fields := updates.Fields()
	if s.logger != nil {
		s.logger.WithModule(ModuleName).DebugContext(ctx, "Profile updated",
			"user_id", userID, "fields", fields)
	}
	return &Result{
		Profile: next,
		Fields:  fields,
		Message: "Successfully updated profile fields: " + strings.Join(fields, ", "),
	}, nil
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordProfileUpdate(result)
	}
}
