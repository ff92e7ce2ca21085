package skies

import (
	"context"
	"sync"
)

// Latest lets a caller keep only the newest of overlapping lookups. Each
// Begin cancels the previous lookup's context and issues a new generation;
// Finish delivers a result only if its generation is still the newest.
type Latest struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin starts a new generation derived from parent and cancels the previous one.
func (l *Latest) Begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel

	return ctx, l.gen
}

// Finish runs deliver if gen is still the newest generation and reports
// whether it ran. deliver runs under the lock, so it never interleaves with
// another Finish or Begin.
func (l *Latest) Finish(gen uint64, deliver func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		return false
	}
	deliver()
	return true
}

// Stop cancels the in-flight lookup, if any, and invalidates its generation.
func (l *Latest) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}
