package http

import (
	"sync"
	"time"
)

// CallerRateLimiter allows at most limit calls per caller in a sliding window.
type CallerRateLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

// NewCallerRateLimiter returns a limiter; limit <= 0 disables it.
func NewCallerRateLimiter(limit int, interval time.Duration) *CallerRateLimiter {
	return &CallerRateLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *CallerRateLimiter) Allow(caller string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[caller]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[caller] = fresh
		return false
	}

	rl.history[caller] = append(fresh, now)
	rl.prune(windowStart)
	return true
}

// prune drops callers with no attempts inside the window.
func (rl *CallerRateLimiter) prune(windowStart time.Time) {
	for caller, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, caller)
		}
	}
}
