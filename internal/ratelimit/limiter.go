package ratelimit

import (
	"sync"
	"time"
)

// Package ratelimit implements per-client fixed-window admission control.
// Counters live in process memory behind an explicitly owned Limiter so the
// store can later be swapped for a distributed one without touching call
// sites. Fixed windows admit up to 2x the nominal rate across a window
// boundary; that is acceptable for abuse mitigation, not quota enforcement.

// DefaultSweepInterval is how often expired windows are evicted.
const DefaultSweepInterval = 5 * time.Minute

type window struct {
	count   int
	resetAt time.Time
}

// Result reports the outcome of an admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds until the window resets, rounded up,
// never below 1. Only meaningful on a denied result.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter holds per-client fixed-window counters. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	stop    chan struct{}
	once    sync.Once

	// now is swappable for tests.
	now func() time.Time
}

// NewLimiter creates a Limiter and starts a background sweeper that evicts
// expired windows every sweepInterval (DefaultSweepInterval if <= 0), so
// memory stays bounded independent of request traffic. Call Close to stop
// the sweeper.
func NewLimiter(sweepInterval time.Duration) *Limiter {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	l := &Limiter{
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go l.sweepLoop(sweepInterval)
	return l
}

// Check admits or denies one request from key under a ceiling of max
// requests per windowDur. The first request of a window (or the first after
// expiry) opens a fresh window with count 1. At the ceiling the counter is
// not incremented further.
func (l *Limiter) Check(key string, max int, windowDur time.Duration) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.resetAt.Before(now) {
		resetAt := now.Add(windowDur)
		l.windows[key] = &window{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Limit: max, Remaining: max - 1, ResetAt: resetAt}
	}

	if w.count >= max {
		return Result{Allowed: false, Limit: max, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Result{Allowed: true, Limit: max, Remaining: max - w.count, ResetAt: w.resetAt}
}

// Close stops the background sweeper. Idempotent.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if w.resetAt.Before(now) {
			delete(l.windows, key)
		}
	}
}
