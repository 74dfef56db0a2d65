package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/degree-planner/internal/metrics"
)

// Config configures a PerKey limiter.
type Config struct {
	// Name labels the limiter in metrics, e.g. "user".
	Name       string
	Burst      float64
	RefillRate float64
	// SweepEvery is how often idle buckets are discarded. Default 5m.
	SweepEvery time.Duration
	Metrics    *metrics.Metrics
}

// PerKey keeps one Bucket per key and periodically drops buckets that have
// refilled, so memory tracks recently active users only.
type PerKey struct {
	cfg      Config
	mu       sync.Mutex
	buckets  map[string]*Bucket
	clock    func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewPerKey starts a limiter and its sweeper. Call Stop when done.
func NewPerKey(cfg Config) *PerKey {
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = 5 * time.Minute
	}
	p := &PerKey{
		cfg:     cfg,
		buckets: make(map[string]*Bucket),
		clock:   time.Now,
		stop:    make(chan struct{}),
	}
	go p.sweepLoop()
	return p
}

// Take consumes a token from key's bucket. When refused, wait is how long the
// caller should back off. Refusals are counted in metrics.
func (p *PerKey) Take(key string) (ok bool, wait time.Duration) {
	ok, wait = p.bucket(key).Take()
	if !ok && p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordRateLimiterDrop(p.cfg.Name)
	}
	return ok, wait
}

// Tokens returns the tokens left for key; unseen keys have a full burst.
func (p *PerKey) Tokens(key string) float64 {
	p.mu.Lock()
	b, ok := p.buckets[key]
	p.mu.Unlock()
	if !ok {
		return p.cfg.Burst
	}
	return b.Tokens()
}

// Len returns the number of tracked keys.
func (p *PerKey) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}

func (p *PerKey) bucket(key string) *Bucket {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[key]
	if !ok {
		b = newBucket(p.cfg.Burst, p.cfg.RefillRate, p.clock)
		p.buckets[key] = b
	}
	return b
}

func (p *PerKey) sweepLoop() {
	ticker := time.NewTicker(p.cfg.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.sweep()
		}
	}
}

func (p *PerKey) sweep() {
	p.mu.Lock()
	for key, b := range p.buckets {
		if b.idle() {
			delete(p.buckets, key)
		}
	}
	n := len(p.buckets)
	p.mu.Unlock()

	if p.cfg.Metrics != nil {
		p.cfg.Metrics.SetRateLimiterUsers(n)
	}
}

// Stop ends the sweeper. It is safe to call more than once.
func (p *PerKey) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}
