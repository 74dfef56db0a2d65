package ratelimit

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/degree-planner/internal/metrics"
)

func newTestPerKey(t *testing.T, burst, rate float64, m *metrics.Metrics) (*PerKey, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	p := NewPerKey(Config{Name: "user", Burst: burst, RefillRate: rate, SweepEvery: time.Hour, Metrics: m})
	p.clock = clock.Now
	t.Cleanup(p.Stop)
	return p, clock
}

func TestPerKey_UsersAreIndependent(t *testing.T) {
	t.Parallel()
	p, _ := newTestPerKey(t, 2, 1, nil)

	for range 2 {
		ok, _ := p.Take("ada")
		require.True(t, ok)
	}
	ok, wait := p.Take("ada")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = p.Take("grace")
	assert.True(t, ok, "another user keeps a full burst")
	assert.Equal(t, 2, p.Len())
	assert.InDelta(t, 1.0, p.Tokens("grace"), 1e-9)
	assert.InDelta(t, 2.0, p.Tokens("linus"), 1e-9, "unseen users report a full burst")
}

func TestPerKey_RecordsRefusals(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	p, _ := newTestPerKey(t, 1, 1, m)

	_, _ = p.Take("ada")
	_, _ = p.Take("ada")
	_, _ = p.Take("ada")

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("user")), 1e-9)
}

func TestPerKey_SweepDropsIdleBuckets(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	p, clock := newTestPerKey(t, 2, 1, m)

	_, _ = p.Take("ada")
	_, _ = p.Take("grace")
	clock.Advance(1500 * time.Millisecond)
	_, _ = p.Take("grace")

	// ada has refilled; grace spent a token half a second ago.
	clock.Advance(500 * time.Millisecond)
	_, _ = p.Take("grace")
	p.sweep()

	assert.Equal(t, 1, p.Len())
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.RateLimiterUsers), 1e-9)
}

func TestPerKey_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	p := NewPerKey(Config{Burst: 1, RefillRate: 1})
	assert.NotPanics(t, func() {
		p.Stop()
		p.Stop()
	})
}
