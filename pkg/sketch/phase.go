package sketch

// Phase is a stage of the lifecycle state machine. Transitions are strictly
// forward, except that Looping may pause and resume without leaving the
// phase.
type Phase int32

const (
	// PhaseConstructing covers option handling and capability binding.
	PhaseConstructing Phase = iota
	// PhaseAwaitingReady waits for the environment's ready signal.
	PhaseAwaitingReady
	// PhasePreloading runs the user preload hook and drains the gate.
	PhasePreloading
	// PhaseSettingUp runs the user setup hook exactly once.
	PhaseSettingUp
	// PhaseLooping is the steady state: the draw cadence is live (or
	// paused, which stays within this phase).
	PhaseLooping
	// PhaseStopped is terminal, entered by Remove.
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseConstructing:
		return "constructing"
	case PhaseAwaitingReady:
		return "awaitingReady"
	case PhasePreloading:
		return "preloading"
	case PhaseSettingUp:
		return "settingUp"
	case PhaseLooping:
		return "looping"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// BindingMode selects where the capability surface is exposed. Fixed at
// construction.
type BindingMode int

const (
	// ModeGlobal projects the capability surface onto the shared global
	// namespace and discovers hooks there.
	ModeGlobal BindingMode = iota
	// ModeInstance exposes capabilities on the Sketch value; the user's
	// closure attaches hooks directly.
	ModeInstance
)

func (m BindingMode) String() string {
	if m == ModeGlobal {
		return "global"
	}
	return "instance"
}
