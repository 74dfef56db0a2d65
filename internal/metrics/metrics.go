package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	// Profile metrics
	ProfileUpdatesTotal *prometheus.CounterVec

	// Schedule metrics
	ScheduleOperationsTotal *prometheus.CounterVec

	// Progress metrics
	ProgressEvaluationsTotal  *prometheus.CounterVec
	ProgressEvaluationSeconds prometheus.Histogram

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterUsers   prometheus.Gauge

	// Catalog metrics
	CatalogReloadsTotal    *prometheus.CounterVec
	SingleflightDedupTotal *prometheus.CounterVec

	// Backup metrics
	BackupsTotal          *prometheus.CounterVec
	BackupDurationSeconds prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		HTTPDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_http_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route"},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_http_errors_total",
				Help: "Total number of HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: validation, not_found, conflict, rate_limit, internal
		),

		// Profile metrics
		ProfileUpdatesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_profile_updates_total",
				Help: "Total number of profile updates by result",
			},
			[]string{"result"}, // result: success, rejected, error
		),

		// Schedule metrics
		ScheduleOperationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_schedule_operations_total",
				Help: "Total number of schedule operations by operation and result",
			},
			[]string{"operation", "result"}, // result: success, duplicate_crn, invalid_format, schedule_overlap, not_found, error
		),

		// Progress metrics
		ProgressEvaluationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_progress_evaluations_total",
				Help: "Total number of requirement progress evaluations by program kind",
			},
			[]string{"kind"}, // kind: major, minor
		),

		ProgressEvaluationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_progress_evaluation_seconds",
				Help:    "Duration of a full progress check",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
			},
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user
		),

		RateLimiterUsers: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "planner_rate_limiter_users",
				Help: "Number of users with an active rate limiter",
			},
		),

		// Catalog metrics
		CatalogReloadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_catalog_reloads_total",
				Help: "Total number of catalog reloads by trigger and status",
			},
			[]string{"trigger", "status"}, // trigger: http, signal; status: success, error
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"}, // module: catalog
		),

		// Backup metrics
		BackupsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_backups_total",
				Help: "Total number of database backups by status",
			},
			[]string{"status"}, // status: success, error
		),

		BackupDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_backup_duration_seconds",
				Help:    "Duration of a database backup including upload",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}

	return m
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(route, code string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
	m.HTTPDurationSeconds.WithLabelValues(route).Observe(duration)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordProfileUpdate records a profile update result
func (m *Metrics) RecordProfileUpdate(result string) {
	m.ProfileUpdatesTotal.WithLabelValues(result).Inc()
}

// RecordScheduleOperation records a schedule operation result
func (m *Metrics) RecordScheduleOperation(operation, result string) {
	m.ScheduleOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordProgressEvaluation records one program evaluation
func (m *Metrics) RecordProgressEvaluation(kind string) {
	m.ProgressEvaluationsTotal.WithLabelValues(kind).Inc()
}

// RecordProgressDuration records the duration of a progress check
func (m *Metrics) RecordProgressDuration(duration float64) {
	m.ProgressEvaluationSeconds.Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterUsers sets the number of active per-user limiters
func (m *Metrics) SetRateLimiterUsers(count int) {
	m.RateLimiterUsers.Set(float64(count))
}

// RecordCatalogReload records a catalog reload attempt
func (m *Metrics) RecordCatalogReload(trigger, status string) {
	m.CatalogReloadsTotal.WithLabelValues(trigger, status).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// RecordBackup records a backup attempt
func (m *Metrics) RecordBackup(status string, duration float64) {
	m.BackupsTotal.WithLabelValues(status).Inc()
	m.BackupDurationSeconds.Observe(duration)
}
