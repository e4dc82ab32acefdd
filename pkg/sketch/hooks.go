package sketch

import (
	"github.com/go-sketch/sketch/pkg/events"
	"github.com/go-sketch/sketch/pkg/surface"
)

// resolveHooks caches the lifecycle hooks once at start. Instance fields
// win; in global mode, absent fields fall back to a namespace lookup by
// well-known name. Hooks attached after this point are not honored.
func (s *Sketch) resolveHooks() {
	s.preloadHook = s.Preload
	s.setupHook = s.Setup
	s.drawHook = s.Draw

	if s.mode != ModeGlobal {
		return
	}
	if s.preloadHook == nil {
		s.preloadHook = surface.Global.Func("preload")
	}
	if s.setupHook == nil {
		s.setupHook = surface.Global.Func("setup")
	}
	if s.drawHook == nil {
		s.drawHook = surface.Global.Func("draw")
	}
}

// wireEvents subscribes every present interaction hook to the ambient
// source, once, recording the subscription for teardown.
func (s *Sketch) wireEvents() {
	for _, t := range events.Types() {
		s.mu.Lock()
		handler := s.handlers[t]
		s.mu.Unlock()

		if handler == nil && s.mode == ModeGlobal {
			handler = globalHandler(t)
		}
		if handler != nil {
			s.registry.Bind(t, handler)
		}
	}
}

// globalHandler looks up an event hook on the global namespace, accepting
// either the full handler shape or a niladic func.
func globalHandler(t events.Type) events.Handler {
	v, ok := surface.Global.Get(t.HookName())
	if !ok {
		return nil
	}
	switch fn := v.(type) {
	case events.Handler:
		return fn
	case func(events.Event):
		return fn
	case func():
		return func(events.Event) { fn() }
	default:
		return nil
	}
}

// Subscriptions reports how many ambient event subscriptions the sketch
// currently holds.
func (s *Sketch) Subscriptions() int {
	return s.registry.Count()
}
