// Package osint implements the OSINT/CTI fanout engine: a per-source
// registry with independent rate limits, circuit breakers, and caches,
// queried with bounded concurrency and resolved into a single consensus
// verdict.
package osint

import (
	"sync"
	"time"
)

// BreakerState is one of the three circuit-breaker states. A breaker never
// moves directly from open to closed — it always passes through half-open
// first.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half-open"
)

// CircuitBreaker is a minimal per-source breaker: it opens after
// FailureThreshold consecutive failures, waits SleepWindow before allowing
// a single half-open trial, and closes on that trial's success or reopens
// on its failure. No sliding-window error rate, no metrics collector — one
// counter and one clock are enough for a per-source breaker.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	sleepWindow      time.Duration

	state           BreakerState
	consecutiveFail int
	openedAt        time.Time
	halfOpenInFlight bool
}

// NewCircuitBreaker builds a closed breaker.
func NewCircuitBreaker(failureThreshold int, sleepWindow time.Duration) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		sleepWindow:      sleepWindow,
		state:            BreakerClosed,
	}
}

// Allow reports whether a query may proceed right now, transitioning
// open -> half-open once the sleep window has elapsed. Only one caller at
// a time is granted the half-open trial; concurrent callers are rejected
// until that trial completes.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.openedAt) < b.sleepWindow {
			return false
		}
		b.state = BreakerHalfOpen
		b.halfOpenInFlight = true
		return true
	case BreakerHalfOpen:
		if b.halfOpenInFlight {
			return false
		}
		b.halfOpenInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess closes the breaker (from closed or half-open) and resets
// the failure streak.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFail = 0
	b.halfOpenInFlight = false
	b.state = BreakerClosed
}

// RecordFailure advances the failure streak, opening the breaker once the
// threshold is reached (or immediately, if the failure happened during a
// half-open trial).
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasHalfOpen := b.state == BreakerHalfOpen
	b.halfOpenInFlight = false
	b.consecutiveFail++

	if wasHalfOpen || b.consecutiveFail >= b.failureThreshold {
		b.state = BreakerOpen
		b.openedAt = time.Now()
	}
}

// State reports the current breaker state, for diagnostics/tests.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
