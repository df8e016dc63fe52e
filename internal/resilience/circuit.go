package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen rejects a call without reaching the service. It is not
// transient: the retry loop gives up on it immediately.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// CircuitState is the breaker's position.
type CircuitState int

const (
	// CircuitClosed lets calls through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects calls until the cooldown lapses.
	CircuitOpen
	// CircuitHalfOpen lets a probe through to test recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker opens after threshold consecutive failures and rejects
// calls for a cooldown. After the cooldown a probe call is let through;
// its success closes the circuit, its failure restarts the cooldown.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration

	failures int
	openedAt time.Time

	now func() time.Time
}

// NewCircuitBreaker builds a breaker. Non-positive arguments fall back
// to 5 failures and a 30s cooldown.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Protect runs fn through the breaker, returning ErrCircuitOpen without
// calling fn while the circuit is open.
func Protect[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	if err := cb.allow(); err != nil {
		var zero T
		return zero, err
	}
	val, err := fn(ctx)
	cb.record(err)
	return val, err
}

// State reports the breaker's current position.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.failures < cb.threshold {
		return CircuitClosed
	}
	if cb.now().Sub(cb.openedAt) < cb.cooldown {
		return CircuitOpen
	}
	return CircuitHalfOpen
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.failures >= cb.threshold && cb.now().Sub(cb.openedAt) < cb.cooldown {
		return ErrCircuitOpen
	}
	// Closed, or half-open letting the probe through.
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err == nil {
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.openedAt = cb.now()
	}
}
