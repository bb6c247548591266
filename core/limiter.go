package core

import (
	"fmt"
	"sync"
)

// HopLimiter enforces a maximum number of tool invocations and delegations
// within one dispatched turn.
type HopLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// DefaultMaxHops is the hop bound used when none is configured.
const DefaultMaxHops = 10

// NewHopLimiter creates a limiter allowing max hops. Values < 1 fall back
// to DefaultMaxHops; an unbounded loop is never permitted.
func NewHopLimiter(max int) *HopLimiter {
	if max < 1 {
		max = DefaultMaxHops
	}
	return &HopLimiter{max: max}
}

// Increment records one hop and returns ErrHopLimitExceeded once the bound
// is passed.
func (l *HopLimiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.count > l.max {
		return fmt.Errorf("%w: %d", ErrHopLimitExceeded, l.max)
	}

	return nil
}

// Count returns the number of hops recorded so far.
func (l *HopLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Max returns the configured bound.
func (l *HopLimiter) Max() int { return l.max }

// Remaining returns how many hops are left before hitting the limit.
func (l *HopLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count >= l.max {
		return 0
	}

	return l.max - l.count
}
