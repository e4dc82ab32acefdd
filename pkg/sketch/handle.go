package sketch

import "sync"

// Handle is the value a wrapped loader returns immediately. It fills in
// once the underlying asynchronous load completes.
type Handle struct {
	mu    sync.Mutex
	done  chan struct{}
	value any
	err   error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) resolve(value any, err error) {
	h.mu.Lock()
	select {
	case <-h.done:
		// Already resolved; keep the first result.
		h.mu.Unlock()
		return
	default:
	}
	h.value = value
	h.err = err
	close(h.done)
	h.mu.Unlock()
}

// Done returns a channel closed when the load completes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Ready reports whether the load has completed.
func (h *Handle) Ready() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Await blocks until the load completes and returns its result.
func (h *Handle) Await() (any, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.err
}

// Value returns the loaded value, or nil if not yet complete or failed.
func (h *Handle) Value() any {
	if !h.Ready() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

// Err returns the load error, or nil if pending or successful.
func (h *Handle) Err() error {
	if !h.Ready() {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
