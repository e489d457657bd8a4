package types

// State is the game state shown by the cabinet.
type State int

const (
	// StateLoading is the local default before any message is observed
	// and while no transport is connected.
	StateLoading State = iota
	StateIdle
	StateStarting
	StatePlaying
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
