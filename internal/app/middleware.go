package app

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyellow/degree-planner/internal/config"
	"github.com/garyellow/degree-planner/internal/ctxutil"
	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/logger"
	"github.com/garyellow/degree-planner/internal/metrics"
	"github.com/garyellow/degree-planner/internal/validate"
)

// requestIDHeader is echoed on every response.
const requestIDHeader = "X-Request-ID"

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// requestIDMiddleware takes the caller's request id, or generates one, and
// stores it in the request context.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-ID")
		}
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, 404=Debug, 3xx/2xx=Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())

		// Handlers replace the request context, so user_id and
		// request_id are read from the final one.
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			entry.ErrorContext(ctx, "HTTP request failed")
		case status >= 400 && status != 404:
			entry.WarnContext(ctx, "HTTP request rejected")
		default:
			entry.DebugContext(ctx, "HTTP request completed")
		}
	}
}

// metricsMiddleware records request counts and latency by route template.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// userMiddleware validates the :user path parameter, applies the per-user
// rate limit and bounds the request with RequestProcessing.
func (a *Application) userMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user")
		if err := validate.UserID(userID); err != nil {
			a.respondError(c, "user", err)
			return
		}

		if ok, wait := a.userLimiter.Take(userID); !ok {
			retry := max(1, int(math.Ceil(wait.Seconds())))
			c.Header("Retry-After", strconv.Itoa(retry))
			a.respondError(c, "user", domerrors.ErrRateLimitExceeded)
			return
		}

		ctx, cancel := context.WithTimeout(ctxutil.WithUserID(c.Request.Context(), userID), config.RequestProcessing)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
