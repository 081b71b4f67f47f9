// Package reqguard keeps only the most recent of a series of overlapping
// requests alive. Starting a new request cancels the previous one, and a
// finished request can check whether it is still the latest before
// publishing its result.
package reqguard

import (
	"context"
	"sync"
)

// Ticket identifies one request started through a Guard.
type Ticket struct {
	seq uint64
}

type Guard struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin cancels the in-flight request, if any, and starts a new one derived
// from parent.
func (g *Guard) Begin(parent context.Context) (context.Context, Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	g.seq++
	g.cancel = cancel

	return ctx, Ticket{seq: g.seq}
}

// Current reports whether t is the latest request.
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return t.seq == g.seq
}

// Finish releases t and reports whether its result should be applied.
// Superseded tickets return false.
func (g *Guard) Finish(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t.seq != g.seq {
		return false
	}

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	return true
}

// Stop cancels the in-flight request and invalidates every ticket.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	g.seq++
}
