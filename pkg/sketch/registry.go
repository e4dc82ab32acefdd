package sketch

import "sync"

// LoaderFunc is the uniform shape for asynchronous asset loaders. The
// implementation starts its work (usually on its own goroutine) and must
// invoke complete exactly once, on success or failure. The controller wraps
// every registered loader so each invocation holds the preload gate open
// until complete is called.
type LoaderFunc func(path string, complete func(value any, err error))

// CapabilityFunc builds a capability value bound to a sketch instance.
// Extension packages register these to add entries to every future sketch's
// capability surface.
type CapabilityFunc func(s *Sketch) any

var (
	regMu        sync.RWMutex
	preloadNames = make(map[string]struct{})
	loaderFuncs  = make(map[string]LoaderFunc)
	capFuncs     = make(map[string]CapabilityFunc)
	removeFuncs  []func(*Sketch)
)

// RegisterPreloadFunc marks a capability name as preload-participating.
// The marking is advisory: it only feeds IsPreloadFunc, so tooling and
// extension packages can query which names are expected to hold the gate.
// It does not wrap anything. Loaders registered through RegisterLoader are
// wrapped for gate participation automatically; a capability registered
// through RegisterCapability holds the gate by calling Sketch.BeginLoad
// itself. Process-wide and append-only.
func RegisterPreloadFunc(name string) {
	regMu.Lock()
	preloadNames[name] = struct{}{}
	regMu.Unlock()
}

// RegisterLoader registers an asynchronous loader capability under name and
// marks it preload-participating. Loader packages call this from init.
func RegisterLoader(name string, fn LoaderFunc) {
	if fn == nil {
		return
	}
	regMu.Lock()
	preloadNames[name] = struct{}{}
	loaderFuncs[name] = fn
	regMu.Unlock()
}

// RegisterCapability registers a capability constructor invoked once per
// sketch during surface assembly. Constructors needing gate participation
// use Sketch.BeginLoad.
func RegisterCapability(name string, build CapabilityFunc) {
	if build == nil {
		return
	}
	regMu.Lock()
	capFuncs[name] = build
	regMu.Unlock()
}

// RegisterRemoveFunc appends a cleanup callback invoked during teardown of
// every sketch constructed afterwards, in registration order.
func RegisterRemoveFunc(fn func(*Sketch)) {
	if fn == nil {
		return
	}
	regMu.Lock()
	removeFuncs = append(removeFuncs, fn)
	regMu.Unlock()
}

// IsPreloadFunc reports whether name participates in the preload gate.
func IsPreloadFunc(name string) bool {
	regMu.RLock()
	defer regMu.RUnlock()
	_, ok := preloadNames[name]
	return ok
}

func snapshotLoaders() map[string]LoaderFunc {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make(map[string]LoaderFunc, len(loaderFuncs))
	for name, fn := range loaderFuncs {
		out[name] = fn
	}
	return out
}

func snapshotCapabilities() map[string]CapabilityFunc {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make(map[string]CapabilityFunc, len(capFuncs))
	for name, fn := range capFuncs {
		out[name] = fn
	}
	return out
}

func snapshotRemoveFuncs() []func(*Sketch) {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]func(*Sketch), len(removeFuncs))
	copy(out, removeFuncs)
	return out
}
