// Package preload implements the counting gate that defers setup until
// every in-flight preload-triggering call has completed.
package preload

import "sync"

// Gate counts outstanding asynchronous loads. The drain callback fires
// exactly once, after Seal, when the count is zero.
//
// Loads may complete on arbitrary goroutines before the preload hook has
// even returned; Seal marks the point after which a zero count means
// "fully drained" rather than "not started yet".
type Gate struct {
	mu      sync.Mutex
	pending int
	sealed  bool
	drained bool
	onDrain func()
}

// NewGate returns a gate that invokes onDrain once all loads complete.
func NewGate(onDrain func()) *Gate {
	return &Gate{onDrain: onDrain}
}

// Begin records one in-flight load and returns the completion function for
// it. The returned function is idempotent: calling it more than once
// decrements the counter only once. Success and failure of the underlying
// load are not distinguished.
func (g *Gate) Begin() (done func()) {
	g.mu.Lock()
	g.pending++
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(g.complete)
	}
}

func (g *Gate) complete() {
	g.mu.Lock()
	if g.pending > 0 {
		g.pending--
	}
	drain := g.drainLocked()
	g.mu.Unlock()

	if drain != nil {
		drain()
	}
}

// Seal marks the end of the triggering window (the preload hook has
// returned). If nothing is outstanding the gate drains immediately and
// synchronously, which makes a preload hook that triggers zero loads
// indistinguishable from no preload hook at all.
func (g *Gate) Seal() {
	g.mu.Lock()
	g.sealed = true
	drain := g.drainLocked()
	g.mu.Unlock()

	if drain != nil {
		drain()
	}
}

// drainLocked returns the drain callback if the gate just transitioned to
// drained. Caller must hold g.mu and invoke the result after unlocking.
func (g *Gate) drainLocked() func() {
	if !g.sealed || g.drained || g.pending != 0 {
		return nil
	}
	g.drained = true
	return g.onDrain
}

// Pending returns the number of outstanding loads.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Drained reports whether the gate has fired its drain callback.
func (g *Gate) Drained() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.drained
}
