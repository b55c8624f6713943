package plugin

// State represents the lifecycle state of a Manager.
//
//	StateEmpty -> LoadPlugins() -> StateScanning -> StateReady
//	StateReady -> Shutdown() -> StateShuttingDown -> StateEmpty
type State int

// Manager states.
const (
	// StateEmpty - No plugins loaded.
	StateEmpty State = iota

	// StateScanning - Discovery and loading in progress.
	StateScanning

	// StateReady - Zero or more plugins loaded and callable.
	StateReady

	// StateShuttingDown - Unload hooks delivered, handles being destroyed.
	StateShuttingDown
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateScanning:
		return "scanning"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}
