package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/degree-planner/internal/ctxutil"
)

// contextFields are the tracing values copied from ctxutil into each record.
var contextFields = []struct {
	key string
	get func(context.Context) string
}{
	{"user_id", ctxutil.GetUserID},
	{"operation", ctxutil.GetOperation},
	{"request_id", func(ctx context.Context) string {
		id, _ := ctxutil.GetRequestID(ctx)
		return id
	}},
}

// ContextHandler adds user_id, operation and request_id from the context to
// every record, so call sites only pass ctx.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, f := range contextFields {
		if v := f.get(ctx); v != "" {
			r.AddAttrs(slog.String(f.key, v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
