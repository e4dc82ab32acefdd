package sketch

import (
	"math"

	"github.com/go-sketch/sketch/pkg/errors"
	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/surface"
)

// constants merged onto every capability surface.
var constantTable = map[string]any{
	"PI":      math.Pi,
	"TWO_PI":  2 * math.Pi,
	"TAU":     2 * math.Pi,
	"HALF_PI": math.Pi / 2,
}

// buildTable assembles the capability surface for this instance: built-in
// operations bound to the sketch, the constant table, registered extension
// capabilities, and every registered loader wrapped for gate
// participation.
func (s *Sketch) buildTable() *surface.Table {
	t := surface.NewTable()

	t.Set("background", s.Background)
	t.Set("noLoop", s.NoLoop)
	t.Set("loop", s.Loop)
	t.Set("isLooping", s.IsLooping)
	t.Set("redraw", func() { s.Redraw(1) })
	t.Set("remove", s.Remove)
	t.Set("frameRate", s.SetFrameRate)
	t.Set("createElement", s.CreateElement)
	t.Set("frameCount", int64(0))
	t.Set("displayDensity", s.environment.PixelDensity())

	for name, v := range constantTable {
		t.Set(name, v)
	}

	for name, build := range snapshotCapabilities() {
		t.Set(name, build(s))
	}

	for name, fn := range snapshotLoaders() {
		t.Set(name, s.wrapLoader(name, fn))
	}

	return t
}

// wrapLoader gives a registered loader its gate participation: each
// invocation opens the gate before the asynchronous work starts and closes
// it on completion, success or failure alike.
func (s *Sketch) wrapLoader(name string, fn LoaderFunc) func(string) *Handle {
	return func(path string) *Handle {
		h := newHandle()
		done := s.gate.Begin()
		fn(path, func(value any, err error) {
			if err != nil {
				err = &errors.LoadError{Loader: name, Path: path, Err: err}
				errors.Report(&errors.SketchError{
					Op:     "sketch." + name,
					Kind:   errors.KindLoad,
					Sketch: s.id,
					Err:    err,
				})
			}
			h.resolve(value, err)
			done()
		})
		return h
	}
}

// Loader returns the wrapped loader capability registered under name, or
// nil if none exists.
func (s *Sketch) Loader(name string) func(string) *Handle {
	v, ok := s.table.Get(name)
	if !ok {
		return nil
	}
	fn, ok := v.(func(string) *Handle)
	if !ok {
		return nil
	}
	return fn
}

// Capability returns the capability stored under name on this instance's
// surface.
func (s *Sketch) Capability(name string) (any, bool) {
	return s.table.Get(name)
}

// reservedNames is the set skipped during global projection: the lifecycle
// hook names and every interaction hook name, so a user-defined hook on
// the global namespace is never clobbered by a capability.
func reservedNames() map[string]struct{} {
	reserved := map[string]struct{}{
		"preload": {},
		"setup":   {},
		"draw":    {},
	}
	for _, t := range events.Types() {
		reserved[t.HookName()] = struct{}{}
	}
	return reserved
}
