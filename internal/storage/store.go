package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/schedule"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "planner.db"

// Store is a complete persistence backend.
type Store interface {
	profile.Repository
	schedule.Repository
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*FileStore)(nil)
)

// Open opens the named backend rooted at dataDir.
func Open(ctx context.Context, backend, dataDir string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		db, err := New(ctx, filepath.Join(dataDir, DatabaseFile))
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendFile:
		fs, err := NewFileStore(dataDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error {
	return nil
}
