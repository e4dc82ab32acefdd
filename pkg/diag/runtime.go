package diag

import (
	"runtime"
	"sync"
	"time"
)

const (
	runtimeSampleIntervalDefault = 5 * time.Second
	runtimeSampleMinInterval     = time.Second
	runtimeSampleCapacity        = 120
)

// RuntimeSample captures a snapshot of process memory and GC stats.
type RuntimeSample struct {
	Timestamp    int64  `json:"ts"`
	HeapAlloc    uint64 `json:"heapAlloc"`
	HeapInuse    uint64 `json:"heapInuse"`
	HeapSys      uint64 `json:"heapSys"`
	NumGoroutine int    `json:"numGoroutine"`
	NumGC        uint32 `json:"numGC"`
	PauseTotalNs uint64 `json:"pauseTotalNs"`
}

// RuntimeBuffer stores recent runtime samples in a ring buffer.
type RuntimeBuffer struct {
	mu      sync.RWMutex
	samples []RuntimeSample
	index   int
	count   int
}

// NewRuntimeBuffer creates an empty runtime-sample buffer.
func NewRuntimeBuffer() *RuntimeBuffer {
	return &RuntimeBuffer{samples: make([]RuntimeSample, runtimeSampleCapacity)}
}

// Add stores one sample.
func (b *RuntimeBuffer) Add(sample RuntimeSample) {
	b.mu.Lock()
	b.samples[b.index] = sample
	b.index = (b.index + 1) % len(b.samples)
	if b.count < len(b.samples) {
		b.count++
	}
	b.mu.Unlock()
}

// Snapshot returns the stored samples in chronological order.
func (b *RuntimeBuffer) Snapshot() []RuntimeSample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}
	result := make([]RuntimeSample, b.count)
	if b.count < len(b.samples) {
		copy(result, b.samples[:b.count])
	} else {
		copy(result, b.samples[b.index:])
		copy(result[len(b.samples)-b.index:], b.samples[:b.index])
	}
	return result
}

// Latest returns the most recent sample.
func (b *RuntimeBuffer) Latest() (RuntimeSample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.count == 0 {
		return RuntimeSample{}, false
	}
	i := b.index - 1
	if i < 0 {
		i = len(b.samples) - 1
	}
	return b.samples[i], true
}

// ReadRuntimeSample reads the current process stats.
func ReadRuntimeSample() RuntimeSample {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return RuntimeSample{
		Timestamp:    time.Now().UnixMilli(),
		HeapAlloc:    stats.HeapAlloc,
		HeapInuse:    stats.HeapInuse,
		HeapSys:      stats.HeapSys,
		NumGoroutine: runtime.NumGoroutine(),
		NumGC:        stats.NumGC,
		PauseTotalNs: stats.PauseTotalNs,
	}
}

// Sampler periodically records runtime samples into a buffer.
type Sampler struct {
	mu     sync.Mutex
	buffer *RuntimeBuffer
	stop   chan struct{}
}

// NewSampler returns a stopped sampler feeding buffer.
func NewSampler(buffer *RuntimeBuffer) *Sampler {
	return &Sampler{buffer: buffer}
}

// Start records one sample immediately and then one per interval. A second
// Start restarts with the new interval.
func (s *Sampler) Start(interval time.Duration) {
	if interval <= 0 {
		interval = runtimeSampleIntervalDefault
	}
	if interval < runtimeSampleMinInterval {
		interval = runtimeSampleMinInterval
	}

	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	stopCh := make(chan struct{})
	s.stop = stopCh
	s.mu.Unlock()

	s.buffer.Add(ReadRuntimeSample())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.buffer.Add(ReadRuntimeSample())
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop halts sampling.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
}
