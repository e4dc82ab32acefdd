package events

import "sync"

// Registry tracks which handlers a sketch has bound to the ambient source
// so teardown can unwind every subscription deterministically.
//
// Binding is one-shot: hooks present at wiring time are subscribed once,
// and a hook attached later is not retroactively subscribed.
type Registry struct {
	mu     sync.Mutex
	source Source
	bound  map[Type]func()
}

// NewRegistry returns a registry binding against source.
func NewRegistry(source Source) *Registry {
	return &Registry{
		source: source,
		bound:  make(map[Type]func()),
	}
}

// Bind subscribes h to the ambient source under t and records the
// subscription. A second Bind for the same type replaces the first,
// unsubscribing the old handler.
func (r *Registry) Bind(t Type, h Handler) {
	if h == nil || r.source == nil {
		return
	}
	unsubscribe := r.source.Subscribe(t, h)

	r.mu.Lock()
	old := r.bound[t]
	r.bound[t] = unsubscribe
	r.mu.Unlock()

	if old != nil {
		old()
	}
}

// Bound reports whether a handler is currently subscribed for t.
func (r *Registry) Bound(t Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bound[t] != nil
}

// Count returns the number of live subscriptions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bound)
}

// UnbindAll revokes every recorded subscription. Safe to call repeatedly.
func (r *Registry) UnbindAll() {
	r.mu.Lock()
	unsubs := make([]func(), 0, len(r.bound))
	for t, unsubscribe := range r.bound {
		unsubs = append(unsubs, unsubscribe)
		delete(r.bound, t)
	}
	r.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}
