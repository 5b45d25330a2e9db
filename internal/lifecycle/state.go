// Package lifecycle defines the application lifecycle state machine.
//
// Valid state graph:
//
//	discovered ─► matched ─► drafted ─► applied ─► acknowledged ─► interviewing ─► offered ─► negotiating
//	     │           │          │          │             │               │            │  └────────┐ │
//	     │           │          │          │             │               │            └──► accepted ◄┘
//	     └───────────┴──────────┴──────────┴─────────────┴───────────────┴──► rejected | withdrawn
//
// accepted, rejected and withdrawn are terminal. rejected and withdrawn are
// reachable from any non-terminal state; accepted only from offered or
// negotiating.
package lifecycle

import "fmt"

// State is the lifecycle state of an application.
type State string

const (
	StateDiscovered   State = "discovered"
	StateMatched      State = "matched"
	StateDrafted      State = "drafted"
	StateApplied      State = "applied"
	StateAcknowledged State = "acknowledged"
	StateInterviewing State = "interviewing"
	StateOffered      State = "offered"
	StateNegotiating  State = "negotiating"
	StateAccepted     State = "accepted"
	StateRejected     State = "rejected"
	StateWithdrawn    State = "withdrawn"
)

var allStates = []State{
	StateDiscovered, StateMatched, StateDrafted, StateApplied,
	StateAcknowledged, StateInterviewing, StateOffered, StateNegotiating,
	StateAccepted, StateRejected, StateWithdrawn,
}

// ParseState converts a raw string to a State, returning an error for
// unknown values.
func ParseState(s string) (State, error) {
	for _, st := range allStates {
		if State(s) == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application state %q", s)
}

// IsTerminal reports whether the state has no outgoing transitions.
func (s State) IsTerminal() bool {
	return s == StateAccepted || s == StateRejected || s == StateWithdrawn
}
