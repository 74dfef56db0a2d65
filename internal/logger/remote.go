package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultQueueSize    = 1024
	defaultDrainTimeout = 5 * time.Second
)

// RemoteOptions tunes the queue in front of the remote log shipper.
type RemoteOptions struct {
	QueueSize    int
	DrainTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// shipper drains queued records into their handlers on a single goroutine.
// Records arriving while the queue is full or after close are dropped.
type shipper struct {
	mu      sync.RWMutex
	closed  bool
	queue   chan queuedRecord
	done    chan struct{}
	drain   time.Duration
	dropped atomic.Uint64
}

func newShipper(opts RemoteOptions) *shipper {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	drain := opts.DrainTimeout
	if drain <= 0 {
		drain = defaultDrainTimeout
	}

	s := &shipper{
		queue: make(chan queuedRecord, size),
		done:  make(chan struct{}),
		drain: drain,
	}
	go func() {
		defer close(s.done)
		for q := range s.queue {
			_ = q.handler.Handle(q.ctx, q.record)
		}
	}()
	return s
}

func (s *shipper) send(q queuedRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- q:
	default:
		s.dropped.Add(1)
	}
}

// close stops accepting records and waits for the queue to drain. Without a
// deadline on ctx the wait is bounded by the drain timeout.
func (s *shipper) close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.drain)
		defer cancel()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("logger: remote queue not drained (%d pending): %w", len(s.queue), ctx.Err())
	}
}

// remoteHandler hands records to a shipper so that a slow network handler
// never blocks the caller.
type remoteHandler struct {
	s    *shipper
	next slog.Handler
}

func newRemoteHandler(next slog.Handler, opts RemoteOptions) *remoteHandler {
	return &remoteHandler{s: newShipper(opts), next: next}
}

func (h *remoteHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *remoteHandler) Handle(ctx context.Context, r slog.Record) error {
	h.s.send(queuedRecord{
		// The request context is usually gone by the time the record ships.
		ctx:     context.WithoutCancel(ctx),
		record:  r.Clone(),
		handler: h.next,
	})
	return nil
}

func (h *remoteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &remoteHandler{s: h.s, next: h.next.WithAttrs(attrs)}
}

func (h *remoteHandler) WithGroup(name string) slog.Handler {
	return &remoteHandler{s: h.s, next: h.next.WithGroup(name)}
}
