package sessions

import "fmt"

// State is where a session is in its connection lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAwaitingPairing
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed
)

var stateNames = map[State]string{
	StateUnauthenticated: "UNAUTHENTICATED",
	StateAwaitingPairing: "AWAITING_PAIRING",
	StateConnecting:      "CONNECTING",
	StateOpen:            "OPEN",
	StateReconnecting:    "RECONNECTING",
	StateClosed:          "CLOSED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", string(text))
}
