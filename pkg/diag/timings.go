// Package diag exposes runtime diagnostics for running sketches: frame
// timing history, process runtime samples, and an HTTP server serving
// health, stats, and Prometheus metrics.
package diag

import (
	"sync"
	"time"

	"github.com/go-sketch/sketch/pkg/sketch"
)

// Timings is a ring buffer of frame durations.
type Timings struct {
	mu       sync.RWMutex
	samples  []time.Duration
	index    int
	capacity int
	count    int
}

// NewTimings creates a buffer holding the most recent capacity durations.
func NewTimings(capacity int) *Timings {
	if capacity <= 0 {
		capacity = 120
	}
	return &Timings{
		samples:  make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add records one frame duration.
func (t *Timings) Add(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[t.index] = d
	t.index = (t.index + 1) % t.capacity
	if t.count < t.capacity {
		t.count++
	}
}

// Samples returns the recorded durations in chronological order.
func (t *Timings) Samples() []time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.count == 0 {
		return nil
	}
	result := make([]time.Duration, t.count)
	if t.count < t.capacity {
		copy(result, t.samples[:t.count])
	} else {
		// Buffer full: oldest sample is at index.
		copy(result, t.samples[t.index:])
		copy(result[t.capacity-t.index:], t.samples[:t.index])
	}
	return result
}

// Count returns the number of recorded samples.
func (t *Timings) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Average returns the mean recorded duration, zero when empty.
func (t *Timings) Average() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.count == 0 {
		return 0
	}
	var total time.Duration
	n := t.count
	if n > t.capacity {
		n = t.capacity
	}
	for i := 0; i < n; i++ {
		total += t.samples[i]
	}
	return total / time.Duration(n)
}

// Max returns the longest recorded duration, zero when empty.
func (t *Timings) Max() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var longest time.Duration
	n := t.count
	if n > t.capacity {
		n = t.capacity
	}
	for i := 0; i < n; i++ {
		if t.samples[i] > longest {
			longest = t.samples[i]
		}
	}
	return longest
}

// InstrumentDraw wraps the sketch's draw hook so every execution records
// its duration into t. Call it inside the sketch closure, before the start
// sequence resolves hooks.
func InstrumentDraw(s *sketch.Sketch, t *Timings) {
	draw := s.Draw
	if draw == nil {
		return
	}
	s.Draw = func() {
		start := time.Now()
		defer func() { t.Add(time.Since(start)) }()
		draw()
	}
}
