package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}

	// Verify all metric fields are initialized
	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if m.HTTPDurationSeconds == nil {
		t.Error("HTTPDurationSeconds is nil")
	}
	if m.HTTPErrorsTotal == nil {
		t.Error("HTTPErrorsTotal is nil")
	}
	if m.ProfileUpdatesTotal == nil {
		t.Error("ProfileUpdatesTotal is nil")
	}
	if m.ScheduleOperationsTotal == nil {
		t.Error("ScheduleOperationsTotal is nil")
	}
	if m.ProgressEvaluationsTotal == nil {
		t.Error("ProgressEvaluationsTotal is nil")
	}
	if m.RateLimiterDropped == nil {
		t.Error("RateLimiterDropped is nil")
	}
	if m.CatalogReloadsTotal == nil {
		t.Error("CatalogReloadsTotal is nil")
	}
	if m.BackupsTotal == nil {
		t.Error("BackupsTotal is nil")
	}
}

func TestNew_SeparateRegistries(t *testing.T) {
	// Registering the same metric names on two registries must not panic
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestRecordScheduleOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordScheduleOperation("add", "success")
	m.RecordScheduleOperation("add", "success")
	m.RecordScheduleOperation("add", "duplicate_crn")

	if got := testutil.ToFloat64(m.ScheduleOperationsTotal.WithLabelValues("add", "success")); got != 2 {
		t.Errorf("add/success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ScheduleOperationsTotal.WithLabelValues("add", "duplicate_crn")); got != 1 {
		t.Errorf("add/duplicate_crn = %v, want 1", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordHTTPRequest("/api/v1/users/:user/profile", "200", 0.01)
	m.RecordHTTPError("validation", "profile")

	if got := testutil.CollectAndCount(m.HTTPRequestsTotal); got != 1 {
		t.Errorf("HTTPRequestsTotal series = %d, want 1", got)
	}
}

func TestRecordMisc(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	// Should not panic
	m.RecordProfileUpdate("success")
	m.RecordProgressEvaluation("major")
	m.RecordProgressDuration(0.002)
	m.RecordRateLimiterDrop("user")
	m.SetRateLimiterUsers(3)
	m.RecordCatalogReload("http", "success")
	m.RecordSingleflightDedup("catalog")
	m.RecordBackup("success", 1.2)

	if got := testutil.ToFloat64(m.RateLimiterUsers); got != 3 {
		t.Errorf("RateLimiterUsers = %v, want 3", got)
	}
}
