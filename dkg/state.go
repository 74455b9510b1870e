package dkg

import (
	"errors"
	"fmt"
)

// State captures the DKG session's protocol phase. The progression is
// Initialized -> Dealing -> Aggregating -> Finalized, with Invalid as an
// absorbing state reachable from any phase on unrecoverable error.
type State int

const (
	// Initialized: the committee is fixed and sorted; awaiting the first
	// Deal call.
	Initialized State = iota
	// Dealing: own transcript produced; ingesting peers' validator
	// messages.
	Dealing
	// Aggregating: transient phase while verified transcripts are combined.
	Aggregating
	// Finalized: the aggregate and committee public key are available.
	Finalized
	// Invalid: the session was aborted; every operation fails.
	Invalid
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "Initialized"
	case Dealing:
		return "Dealing"
	case Aggregating:
		return "Aggregating"
	case Finalized:
		return "Finalized"
	case Invalid:
		return "Invalid"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// InvalidStateError is returned when an operation is invoked outside its
// legal DKG phase. The state machine rejects out-of-order calls rather than
// silently no-oping.
type InvalidStateError struct {
	Op    string
	State State
}

// NewInvalidStateError constructs an InvalidStateError for the given
// operation attempted in the given state.
func NewInvalidStateError(op string, state State) InvalidStateError {
	return InvalidStateError{Op: op, State: state}
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s in DKG state %s", e.Op, e.State)
}

// IsInvalidStateError reports whether an error is a phase-ordering
// rejection.
func IsInvalidStateError(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}
