package sketch

import (
	"sync"

	"github.com/go-sketch/sketch/pkg/env"
	"github.com/go-sketch/sketch/pkg/events"
)

// ElementRecord is the teardown bookkeeping for a created visual element:
// the element itself plus every handler attached through the record. The
// subscription registry never touches these; teardown finds them here.
type ElementRecord struct {
	element env.Element
	source  events.Source

	mu      sync.Mutex
	removes map[events.Type]func()
}

func newElementRecord(element env.Element, source events.Source) *ElementRecord {
	return &ElementRecord{
		element: element,
		source:  source,
		removes: make(map[events.Type]func()),
	}
}

// Element returns the underlying environment element.
func (r *ElementRecord) Element() env.Element { return r.element }

// ID returns the underlying element's identifier.
func (r *ElementRecord) ID() string { return r.element.ID() }

// On attaches an element-local handler. A second handler for the same type
// replaces the first. The subscription is recorded so teardown can revoke
// it.
func (r *ElementRecord) On(t events.Type, h events.Handler) {
	if h == nil || r.source == nil {
		return
	}
	unsubscribe := r.source.Subscribe(t, h)

	r.mu.Lock()
	old := r.removes[t]
	r.removes[t] = unsubscribe
	r.mu.Unlock()

	if old != nil {
		old()
	}
}

// HandlerCount returns the number of live element-local subscriptions.
func (r *ElementRecord) HandlerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.removes)
}

// teardown detaches the element and revokes its local subscriptions.
func (r *ElementRecord) teardown() {
	if r.element.Attached() {
		r.element.Detach()
	}

	r.mu.Lock()
	unsubs := make([]func(), 0, len(r.removes))
	for t, unsubscribe := range r.removes {
		unsubs = append(unsubs, unsubscribe)
		delete(r.removes, t)
	}
	r.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}
