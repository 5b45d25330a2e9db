package lifecycle

import "fmt"

// transitions lists every allowed (state, event) → state pair. Rejection
// and withdrawal are handled separately since they apply to every
// non-terminal state.
var transitions = map[State]map[EventKind]State{
	StateDiscovered: {
		EventMatchComputed: StateMatched,
	},
	StateMatched: {
		EventArtifactReady: StateDrafted,
	},
	StateDrafted: {
		EventSubmissionConfirmed: StateApplied,
	},
	StateApplied: {
		EventEmailConfirmation: StateAcknowledged,
	},
	StateAcknowledged: {
		EventEmailInterview: StateInterviewing,
	},
	StateInterviewing: {
		EventEmailOffer: StateOffered,
	},
	StateOffered: {
		EventNegotiationStarted: StateNegotiating,
		EventOfferAccepted:      StateAccepted,
	},
	StateNegotiating: {
		EventOfferAccepted: StateAccepted,
	},
	// terminal states have no outgoing transitions
}

// selfHealing tolerates out-of-order external signals: email classification
// and extension tracking can both lag or skip intermediate states. Each
// entry documents an explicitly accepted shortcut; anything not listed is
// an anomaly and the event is dropped. Healing never applies before the
// application is submitted, so an offer email for a merely discovered job
// stays an anomaly.
var selfHealing = map[State]map[EventKind]State{
	StateApplied: {
		EventEmailInterview: StateInterviewing,
		EventEmailOffer:     StateOffered,
	},
	StateAcknowledged: {
		EventEmailOffer: StateOffered,
	},
}

// implied maps every event kind to the state it implies, used for
// idempotent replay detection.
var implied = map[EventKind]State{
	EventMatchComputed:       StateMatched,
	EventArtifactReady:       StateDrafted,
	EventSubmissionConfirmed: StateApplied,
	EventEmailConfirmation:   StateAcknowledged,
	EventEmailInterview:      StateInterviewing,
	EventEmailRejection:      StateRejected,
	EventEmailOffer:          StateOffered,
	EventNegotiationStarted:  StateNegotiating,
	EventOfferAccepted:       StateAccepted,
	EventWithdrawRequested:   StateWithdrawn,
}

// InvalidTransitionError reports an event that is not valid for the
// application's current state.
type InvalidTransitionError struct {
	From  State
	Event EventKind
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %s is not valid in state %s", e.Event, e.From)
}

// Outcome is the result of resolving one event against one state.
type Outcome struct {
	State State
	// NoOp marks an idempotent replay: the application is already in the
	// state the event implies.
	NoOp bool
	// Healed marks a tolerated out-of-order shortcut from the
	// self-healing table.
	Healed bool
}

// Resolve computes the next state for (current, event). Replaying an event
// whose implied state equals the current state is a no-op, never an error.
func Resolve(current State, event EventKind) (Outcome, error) {
	target, ok := implied[event]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown event kind %q", event)
	}

	if target == current {
		return Outcome{State: current, NoOp: true}, nil
	}

	if current.IsTerminal() {
		return Outcome{}, &InvalidTransitionError{From: current, Event: event}
	}

	switch event {
	case EventEmailRejection:
		return Outcome{State: StateRejected}, nil
	case EventWithdrawRequested:
		return Outcome{State: StateWithdrawn}, nil
	}

	if next, ok := transitions[current][event]; ok {
		return Outcome{State: next}, nil
	}

	if next, ok := selfHealing[current][event]; ok {
		return Outcome{State: next, Healed: true}, nil
	}

	return Outcome{}, &InvalidTransitionError{From: current, Event: event}
}
