// Package sentry reports unexpected server errors to a Sentry-compatible
// backend such as Better Stack Errors.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/degree-planner/internal/ctxutil"
)

// Config selects the Better Stack Errors application and tags events with
// the deployment. A zero SampleRate means every event.
type Config struct {
	Token       string
	Host        string
	Environment string
	Release     string
	SampleRate  float64
	Debug       bool
}

// DSN builds the client DSN: https://$TOKEN@$HOST/1. The project ID is
// required by the SDK but ignored by Better Stack.
func (c Config) DSN() string {
	return fmt.Sprintf("https://%s@%s/1", c.Token, c.Host)
}

// Initialize installs the global client. An empty Token leaves reporting off.
func Initialize(cfg Config) error {
	if cfg.Token == "" {
		return nil
	}

	if cfg.Host == "" {
		return fmt.Errorf("sentry: host is required when a token is set")
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN(),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush reports whether buffered events were delivered within timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client is installed.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureExceptionWithContext captures err on the request's hub (set by the
// sentrygin middleware) or the global hub, tagged with the tracing values in
// ctx.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range Tags(ctx) {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Tags returns the tracing values in ctx as Sentry tags.
func Tags(ctx context.Context) map[string]string {
	tags := make(map[string]string, 3)
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		tags["user_id"] = userID
	}
	if op := ctxutil.GetOperation(ctx); op != "" {
		tags["operation"] = op
	}
	if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
		tags["request_id"] = requestID
	}
	return tags
}
