// Package gate provides the process-wide mutual exclusion primitive that
// serializes browsing-worker executions. Exactly one invocation may hold the
// gate at a time, regardless of which session it belongs to.
package gate

import "context"

// Gate is a binary semaphore with context-aware acquisition. Acquire suspends
// the caller until any prior holder releases or the context is cancelled.
// Release must be called exactly once per successful Acquire; deferring it at
// guarded-scope entry guarantees release on every exit path. The gate is not
// reentrant; waiters are served in the order the runtime wakes them.
type Gate struct {
	ch chan struct{}
}

// New constructs an unheld Gate.
func New() *Gate {
	return &Gate{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the gate is free or ctx is done. It returns ctx.Err()
// when cancelled before acquisition; the gate is not held in that case.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires the gate without blocking, reporting whether it
// succeeded.
func (g *Gate) TryAcquire() bool {
	select {
	case g.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the gate. Calling Release without holding the gate panics,
// surfacing the double-release bug instead of silently corrupting exclusion.
func (g *Gate) Release() {
	select {
	case <-g.ch:
	default:
		panic("gate: release of unheld gate")
	}
}
