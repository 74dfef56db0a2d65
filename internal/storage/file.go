package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/schedule"
	"github.com/garyellow/degree-planner/internal/sliceutil"
	"github.com/garyellow/degree-planner/internal/validate"
)

// Directory names under the FileStore root.
const (
	ProfilesDir  = "profiles"
	CalendarsDir = "calendar_profiles"
)

var (
	_ profile.Repository  = (*FileStore)(nil)
	_ schedule.Repository = (*FileStore)(nil)
)

// FileStore keeps each user's profile and calendar as an indented JSON file:
//
//	{root}/profiles/{user}.json
//	{root}/calendar_profiles/{user}.json
//
// Missing and unreadable files are reported as not found so callers fall back
// to defaults. Writes go to a temp file that is renamed into place.
type FileStore struct {
	root string
}

// NewFileStore creates the store directories under root.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{ProfilesDir, CalendarsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

// Root returns the store's base directory.
func (s *FileStore) Root() string {
	return s.root
}

// Ping checks that the store directories are still present.
func (s *FileStore) Ping(_ context.Context) error {
	for _, dir := range []string{ProfilesDir, CalendarsDir} {
		info, err := os.Stat(filepath.Join(s.root, dir))
		if err != nil {
			return fmt.Errorf("stat %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
	}
	return nil
}

func (s *FileStore) path(dir, userID string) (string, error) {
	// user ids become file names
	if err := validate.UserID(userID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, dir, userID+".json"), nil
}

// GetProfile reads a user's profile file.
func (s *FileStore) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	path, err := s.path(ProfilesDir, userID)
	if err != nil {
		return nil, err
	}
	var p profile.Profile
	if err := readJSON(ctx, path, &p); err != nil {
		return nil, notFoundOr(err, "profile", userID)
	}
	return &p, nil
}

// SaveProfile writes a user's profile file.
func (s *FileStore) SaveProfile(ctx context.Context, userID string, p *profile.Profile) error {
	path, err := s.path(ProfilesDir, userID)
	if err != nil {
		return err
	}
	return writeJSON(ctx, path, p)
}

// GetCalendar reads a user's calendar file.
func (s *FileStore) GetCalendar(ctx context.Context, userID string) (*schedule.Calendar, error) {
	path, err := s.path(CalendarsDir, userID)
	if err != nil {
		return nil, err
	}
	var cal schedule.Calendar
	if err := readJSON(ctx, path, &cal); err != nil {
		return nil, notFoundOr(err, "calendar", userID)
	}
	// Hand-edited files may repeat a CRN; the first entry wins.
	cal.Courses = sliceutil.Deduplicate(cal.Courses, func(c schedule.ScheduledCourse) schedule.CRN { return c.CRN })
	if cal.Courses == nil {
		cal.Courses = []schedule.ScheduledCourse{}
	}
	return &cal, nil
}

// SaveCalendar writes a user's calendar file.
func (s *FileStore) SaveCalendar(ctx context.Context, userID string, cal *schedule.Calendar) error {
	path, err := s.path(CalendarsDir, userID)
	if err != nil {
		return err
	}
	return writeJSON(ctx, path, cal)
}

// errCorrupt marks a file that exists but does not decode. It is reported,
// never mapped to not-found, so callers do not write defaults over it.
var errCorrupt = errors.New("corrupt file")

func readJSON(ctx context.Context, path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.ErrorContext(ctx, "failed to read file", "path", path, "error", err)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.ErrorContext(ctx, "corrupt file left untouched", "path", path, "error", err)
		return fmt.Errorf("%w: %s: %w", errCorrupt, path, err)
	}
	return nil
}

func notFoundOr(err error, resource, userID string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return domerrors.NewNotFoundError(resource, userID, "")
	}
	return fmt.Errorf("read %s: %w", resource, err)
}

func writeJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		slog.ErrorContext(ctx, "failed to replace file", "path", path, "error", err)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
