package viewer

// State is where the viewer is in its compile cycle.
type State int

const (
	// StateStartup is the state before the first compile cycle.
	StateStartup State = iota
	// StateIdle means the displayed diagram matches the last compiled text.
	StateIdle
	// StateDirty means the text changed and the quiet period is running.
	StateDirty
	// StateCompiling means a compile cycle is in progress.
	StateCompiling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStartup:
		return "startup"
	case StateIdle:
		return "idle"
	case StateDirty:
		return "dirty"
	case StateCompiling:
		return "compiling"
	default:
		return "unknown"
	}
}

// Trigger is what started a compile cycle.
type Trigger int

const (
	// TriggerStartup is the cycle run once at startup.
	TriggerStartup Trigger = iota
	// TriggerDebounce is a cycle run after edits settled.
	TriggerDebounce
	// TriggerManual is an explicit compile request.
	TriggerManual
	// TriggerFileOpen follows loading a file into the buffer.
	TriggerFileOpen
	// TriggerOption follows toggling a compile option.
	TriggerOption
	// TriggerFileChanged follows reloading the opened file after it changed
	// on disk.
	TriggerFileChanged
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case TriggerStartup:
		return "startup"
	case TriggerDebounce:
		return "debounce"
	case TriggerManual:
		return "manual"
	case TriggerFileOpen:
		return "file-open"
	case TriggerOption:
		return "option"
	case TriggerFileChanged:
		return "file-changed"
	default:
		return "unknown"
	}
}
