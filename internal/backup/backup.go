// Package backup snapshots the SQLite database, compresses it with zstd and
// stores it in object storage, and restores it from there.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/garyellow/degree-planner/internal/logger"
	"github.com/garyellow/degree-planner/internal/metrics"
	"github.com/garyellow/degree-planner/internal/r2client"
)

// ContentType is the MIME type of an uploaded backup.
const ContentType = "application/zstd"

// ErrNoBackup is returned by Restore when no backup exists.
var ErrNoBackup = errors.New("backup: no backup found")

// Snapshotter writes a consistent copy of a database to a file.
type Snapshotter interface {
	BackupTo(ctx context.Context, dest string) error
}

// ObjectStore is the subset of r2client.Client used for backups.
type ObjectStore interface {
	UploadAtomic(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

var _ ObjectStore = (*r2client.Client)(nil)

// Result describes a completed backup.
type Result struct {
	Key            string
	ETag           string
	RawBytes       int64
	CompressedSize int64
	Duration       time.Duration
}

// Manager uploads database backups to a fixed key.
type Manager struct {
	db      Snapshotter
	store   ObjectStore
	key     string
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewManager creates a backup manager. metrics and log may be nil.
func NewManager(db Snapshotter, store ObjectStore, key string, m *metrics.Metrics, log *logger.Logger) *Manager {
	return &Manager{db: db, store: store, key: key, metrics: m, logger: log}
}

// Run takes one snapshot and uploads it.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := m.run(ctx)
	res.Duration = time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	if m.metrics != nil {
		m.metrics.RecordBackup(status, res.Duration.Seconds())
	}
	if m.logger != nil {
		if err != nil {
			m.logger.WithError(err).ErrorContext(ctx, "Backup failed", "key", m.key)
		} else {
			m.logger.InfoContext(ctx, "Backup uploaded",
				"key", res.Key,
				"raw_bytes", res.RawBytes,
				"compressed_bytes", res.CompressedSize,
				"duration_ms", res.Duration.Milliseconds())
		}
	}
	return res, err
}

func (m *Manager) run(ctx context.Context) (Result, error) {
	dir, err := os.MkdirTemp("", "planner-backup-*")
	if err != nil {
		return Result{}, fmt.Errorf("backup: create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	snapshot := filepath.Join(dir, "snapshot.db")
	if err := m.db.BackupTo(ctx, snapshot); err != nil {
		return Result{}, fmt.Errorf("backup: snapshot: %w", err)
	}

	compressed := snapshot + ".zst"
	raw, err := CompressFile(snapshot, compressed)
	if err != nil {
		return Result{}, err
	}

	f, err := os.Open(compressed)
	if err != nil {
		return Result{}, fmt.Errorf("backup: open compressed snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("backup: stat compressed snapshot: %w", err)
	}

	etag, err := m.store.UploadAtomic(ctx, m.key, f, ContentType)
	if err != nil {
		return Result{}, fmt.Errorf("backup: upload: %w", err)
	}

	return Result{
		Key:            m.key,
		ETag:           etag,
		RawBytes:       raw,
		CompressedSize: info.Size(),
	}, nil
}

// Restore downloads the backup at key and installs it at dbPath, replacing
// any existing database. It must run before the database is opened.
func Restore(ctx context.Context, store ObjectStore, key, dbPath string) error {
	body, _, err := store.Download(ctx, key)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return ErrNoBackup
		}
		return fmt.Errorf("backup: download: %w", err)
	}
	defer func() { _ = body.Close() }()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("backup: create database directory: %w", err)
	}

	staged := dbPath + ".restore"
	if err := DecompressStream(body, staged); err != nil {
		_ = os.Remove(staged)
		return err
	}

	// Stale WAL files would be replayed on top of the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(staged)
			return fmt.Errorf("backup: remove %s: %w", suffix, err)
		}
	}
	if err := os.Rename(staged, dbPath); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("backup: install restored database: %w", err)
	}
	return nil
}

// CompressFile compresses srcPath with zstd into dstPath and returns the
// number of uncompressed bytes read.
func CompressFile(srcPath, dstPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("compress: open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("compress: create dest: %w", err)
	}
	defer func() { _ = dst.Close() }()

	n, err := Compress(dst, src)
	if err != nil {
		return 0, err
	}
	if err := dst.Sync(); err != nil {
		return 0, fmt.Errorf("compress: sync dest: %w", err)
	}
	return n, nil
}

// Compress writes the zstd compression of r to w.
func Compress(w io.Writer, r io.Reader) (int64, error) {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return 0, fmt.Errorf("compress: create encoder: %w", err)
	}

	n, err := io.Copy(encoder, r)
	if err != nil {
		_ = encoder.Close()
		return 0, fmt.Errorf("compress: copy: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return 0, fmt.Errorf("compress: close encoder: %w", err)
	}
	return n, nil
}

// DecompressStream decompresses a zstd stream into dstPath.
func DecompressStream(r io.Reader, dstPath string) error {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("decompress: create decoder: %w", err)
	}
	defer decoder.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("decompress: create dest: %w", err)
	}

	if _, err := io.Copy(dst, decoder); err != nil {
		_ = dst.Close()
		return fmt.Errorf("decompress: copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("decompress: close dest: %w", err)
	}
	return nil
}
