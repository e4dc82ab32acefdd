package surface

import (
	"sort"
	"sync"
)

// Namespace is an addressable set of named bindings. In global binding mode
// the shared Global namespace plays the role of the ambient global object:
// the capability table is projected onto it at construction and revoked at
// teardown.
type Namespace struct {
	mu     sync.RWMutex
	values map[string]any
}

// Global is the shared ambient namespace used by global-mode sketches.
// The owning sketch is its sole writer for the duration of its lifetime.
var Global = NewNamespace()

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{values: make(map[string]any)}
}

// Set binds name to v.
func (n *Namespace) Set(name string, v any) {
	n.mu.Lock()
	n.values[name] = v
	n.mu.Unlock()
}

// Get returns the binding for name.
func (n *Namespace) Get(name string) (any, bool) {
	n.mu.RLock()
	v, ok := n.values[name]
	n.mu.RUnlock()
	return v, ok
}

// Has reports whether name is bound.
func (n *Namespace) Has(name string) bool {
	_, ok := n.Get(name)
	return ok
}

// Delete removes the binding for name.
func (n *Namespace) Delete(name string) {
	n.mu.Lock()
	delete(n.values, name)
	n.mu.Unlock()
}

// Names returns all bound names in sorted order.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	names := make([]string, 0, len(n.values))
	for name := range n.values {
		names = append(names, name)
	}
	n.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Func returns the binding for name as a niladic function, or nil if the
// binding is absent or not of that shape.
func (n *Namespace) Func(name string) func() {
	v, ok := n.Get(name)
	if !ok {
		return nil
	}
	fn, ok := v.(func())
	if !ok {
		return nil
	}
	return fn
}
