package session

// State is a position in the per-connection protocol state machine.
type State int

const (
	Idle                State = iota // Accepted, waiting for the first byte
	AwaitingRegionCount              // First byte available, reading N
	ProcessingRegion                 // Decoding and painting region i of N, entered once per region
	Acknowledging                    // All regions painted, writing "OK"
	Draining                         // Discarding trailing client bytes
	Closed                           // Finished normally, connection closed
	Aborted                          // Failed, connection closed without ack
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingRegionCount:
		return "AwaitingRegionCount"
	case ProcessingRegion:
		return "ProcessingRegion"
	case Acknowledging:
		return "Acknowledging"
	case Draining:
		return "Draining"
	case Closed:
		return "Closed"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Closed || s == Aborted
}
