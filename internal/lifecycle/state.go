package lifecycle

// State is the coordinator lifecycle state.
type State string

const (
	// StateEmpty holds no instances. Start is only valid here.
	StateEmpty State = "empty"
	// StateDiscovering is scanning sources and constructing instances.
	StateDiscovering State = "discovering"
	// StateActive has run initialize for every constructed instance.
	StateActive State = "active"
	// StateShuttingDown is running cleanup.
	StateShuttingDown State = "shutting_down"
)

// validTransitions defines the allowed state transitions for a coordinator.
// Active may re-enter Discovering for an additive rescan.
var validTransitions = map[State]map[State]bool{
	StateEmpty: {
		StateDiscovering: true,
	},
	StateDiscovering: {
		StateActive: true,
	},
	StateActive: {
		StateDiscovering:  true,
		StateShuttingDown: true,
	},
	StateShuttingDown: {
		StateEmpty: true,
	},
}

// String returns the string representation of the State.
func (s State) String() string {
	return string(s)
}

// IsValid returns true if this is a recognized State value.
func (s State) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s State) CanTransitionTo(target State) bool {
	return validTransitions[s][target]
}
