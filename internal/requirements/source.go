package requirements

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fetches raw catalog JSON.
type Loader func(ctx context.Context) ([]byte, error)

// FileLoader reads the catalog from path on every call.
func FileLoader(path string) Loader {
	return func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		return raw, nil
	}
}

// BytesLoader always returns raw. Used for the embedded catalog.
func BytesLoader(raw []byte) Loader {
	return func(context.Context) ([]byte, error) {
		return raw, nil
	}
}

// Source holds the active catalog and swaps it atomically on reload.
// Readers never block; concurrent reloads share one load.
type Source struct {
	load     Loader
	current  atomic.Pointer[Catalog]
	loadedAt atomic.Int64
	group    singleflight.Group
}

// NewSource loads the initial catalog. Startup fails if it is invalid.
func NewSource(ctx context.Context, load Loader) (*Source, error) {
	s := &Source{load: load}
	if _, _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Catalog returns the active catalog.
func (s *Source) Catalog() *Catalog {
	return s.current.Load()
}

// Loaded reports whether a catalog is active.
func (s *Source) Loaded() bool {
	return s.current.Load() != nil
}

// LoadedAt returns when the active catalog was installed.
func (s *Source) LoadedAt() time.Time {
	ns := s.loadedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Reload fetches, validates and installs a new catalog. On failure the
// previous catalog stays active. shared is true when this caller waited on a
// reload already in flight.
func (s *Source) Reload(ctx context.Context) (c *Catalog, shared bool, err error) {
	v, err, shared := s.group.Do("catalog", func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		raw, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		next, err := Load(raw)
		if err != nil {
			return nil, err
		}
		s.current.Store(next)
		s.loadedAt.Store(time.Now().UnixNano())
		return next, nil
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*Catalog), shared, nil
}
