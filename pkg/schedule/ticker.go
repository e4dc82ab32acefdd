package schedule

import (
	"sync"
	"time"
)

// Ticker fires a callback at a fixed interval. It is restartable: changing
// the interval cancels the pending arm and re-arms with the new interval.
//
// The ticker drives the frame counter, which advances on its own cadence
// independent of how long draw executions take.
type Ticker struct {
	clock Clock

	mu       sync.Mutex
	interval time.Duration
	fn       func()
	timer    Timer
	running  bool
}

// NewTicker returns a stopped ticker firing fn every interval.
func NewTicker(clock Clock, interval time.Duration, fn func()) *Ticker {
	if clock == nil {
		clock = System
	}
	return &Ticker{clock: clock, interval: interval, fn: fn}
}

// Start arms the ticker. No-op if already running.
func (t *Ticker) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.armLocked()
	t.mu.Unlock()
}

// Stop cancels the pending arm. No-op if not running.
func (t *Ticker) Stop() {
	t.mu.Lock()
	t.running = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}

// Running reports whether the ticker is armed.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// SetInterval changes the firing interval. If the ticker is running, the
// pending arm is cancelled and re-armed with the new interval.
func (t *Ticker) SetInterval(interval time.Duration) {
	t.mu.Lock()
	t.interval = interval
	if t.running {
		if t.timer != nil {
			t.timer.Stop()
		}
		t.armLocked()
	}
	t.mu.Unlock()
}

// Interval returns the current firing interval.
func (t *Ticker) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

func (t *Ticker) armLocked() {
	t.timer = t.clock.AfterFunc(t.interval, t.tick)
}

func (t *Ticker) tick() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	fn := t.fn
	t.armLocked()
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}
