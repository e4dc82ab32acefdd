// Package surface implements the capability surface: the named table of
// functions and values a sketch exposes to user code, and the namespace
// projection that makes the same table addressable globally or through an
// instance without duplicating logic.
package surface

import (
	"reflect"
	"sort"
	"sync"
)

// Table is a named set of capabilities bound to one owning sketch.
// Function-valued entries are closures over the owner; everything else is
// plain data (constants, mirrored properties).
type Table struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewTable returns an empty capability table.
func NewTable() *Table {
	return &Table{entries: make(map[string]any)}
}

// Set stores a capability under name, replacing any previous entry.
func (t *Table) Set(name string, v any) {
	t.mu.Lock()
	t.entries[name] = v
	t.mu.Unlock()
}

// Get returns the capability stored under name.
func (t *Table) Get(name string) (any, bool) {
	t.mu.RLock()
	v, ok := t.entries[name]
	t.mu.RUnlock()
	return v, ok
}

// Names returns all capability names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of capabilities in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Project copies every capability onto ns, skipping names present in
// reserved. Function values are copied by reference (they are already bound
// to their owner); data values are copied by value. It returns the names
// actually written, in sorted order, so the caller can revoke exactly those
// entries at teardown.
func Project(t *Table, ns *Namespace, reserved map[string]struct{}) []string {
	names := t.Names()
	bound := make([]string, 0, len(names))
	for _, name := range names {
		if _, skip := reserved[name]; skip {
			continue
		}
		v, ok := t.Get(name)
		if !ok {
			continue
		}
		ns.Set(name, v)
		bound = append(bound, name)
	}
	return bound
}

// IsFunc reports whether a capability value is function-valued.
func IsFunc(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}
