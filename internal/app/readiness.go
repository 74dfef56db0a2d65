package app

import (
	"sync/atomic"
	"time"
)

// readinessState tracks whether the service should receive traffic.
// It starts not ready, becomes ready once initialization finishes and turns
// not ready again when shutdown begins so load balancers drain it first.
// startTime is immutable after construction.
type readinessState struct {
	ready     atomic.Bool
	draining  atomic.Bool
	startTime time.Time
}

// ReadinessStatus is the readiness part of the /readyz response.
type ReadinessStatus struct {
	Ready         bool   `json:"ready"`
	Reason        string `json:"reason,omitempty"`
	UptimeSeconds int    `json:"uptime_seconds"`
}

func newReadinessState() *readinessState {
	return &readinessState{startTime: time.Now()}
}

// IsReady reports whether initialization completed and shutdown has not begun.
func (s *readinessState) IsReady() bool {
	return s.ready.Load() && !s.draining.Load()
}

// MarkReady marks initialization as complete.
func (s *readinessState) MarkReady() {
	s.ready.Store(true)
}

// MarkDraining marks the service as shutting down. It cannot be undone.
func (s *readinessState) MarkDraining() {
	s.draining.Store(true)
}

// Status returns the current readiness status for API responses.
func (s *readinessState) Status() ReadinessStatus {
	status := ReadinessStatus{
		Ready:         s.IsReady(),
		UptimeSeconds: int(time.Since(s.startTime).Seconds()),
	}
	switch {
	case s.draining.Load():
		status.Reason = "shutting down"
	case !s.ready.Load():
		status.Reason = "initializing"
	}
	return status
}
