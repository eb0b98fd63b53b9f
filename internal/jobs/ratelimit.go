package jobs

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-caller sliding window: at most limit calls
// within any window-sized interval.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  map[string][]time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		calls:  make(map[string][]time.Time),
	}
}

// Allow records the call and reports whether the caller is inside the
// limit. Denied calls are not recorded.
func (l *RateLimiter) Allow(caller string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(caller, now)
	if len(recent) >= l.limit {
		l.calls[caller] = recent
		return false
	}
	l.calls[caller] = append(recent, now)
	return true
}

// Remaining reports how many calls the caller has left in the window.
func (l *RateLimiter) Remaining(caller string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(caller, now)
	l.calls[caller] = recent
	if left := l.limit - len(recent); left > 0 {
		return left
	}
	return 0
}

func (l *RateLimiter) prune(caller string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	recent := l.calls[caller][:0]
	for _, at := range l.calls[caller] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	if len(recent) == 0 {
		delete(l.calls, caller)
		return nil
	}
	return recent
}
