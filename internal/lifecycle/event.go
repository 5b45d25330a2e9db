package lifecycle

import "time"

// EventKind identifies what happened to an application. Email-driven
// events are split per classification so the transition table stays flat.
type EventKind string

const (
	EventMatchComputed       EventKind = "match_computed"
	EventArtifactReady       EventKind = "artifact_ready"
	EventSubmissionConfirmed EventKind = "submission_confirmed"
	EventEmailConfirmation   EventKind = "email_confirmation"
	EventEmailInterview      EventKind = "email_interview"
	EventEmailRejection      EventKind = "email_rejection"
	EventEmailOffer          EventKind = "email_offer"
	EventNegotiationStarted  EventKind = "negotiation_started"
	EventOfferAccepted       EventKind = "offer_accepted"
	EventWithdrawRequested   EventKind = "withdraw_requested"
)

// EventSource records which channel reported an event.
type EventSource string

const (
	SourceManual     EventSource = "manual"
	SourceEmail      EventSource = "email_event"
	SourceExtension  EventSource = "extension"
	SourceAutoSubmit EventSource = "auto_submit"
	SourceAuto       EventSource = "auto"
)

// Event is a single external or internal signal applied to an application.
type Event struct {
	Kind   EventKind
	Source EventSource
	At     time.Time

	// OfferAmount carries the monthly gross amount for offer events,
	// zero otherwise.
	OfferAmount float64
}

// IsEmail reports whether the event came from email classification.
func (k EventKind) IsEmail() bool {
	switch k {
	case EventEmailConfirmation, EventEmailInterview, EventEmailRejection, EventEmailOffer:
		return true
	}
	return false
}
