package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// TransitionRecord is one entry in an application's ordered history.
type TransitionRecord struct {
	From   State       `json:"from"`
	To     State       `json:"to"`
	Event  EventKind   `json:"event"`
	Source EventSource `json:"source"`
	Healed bool        `json:"healed,omitempty"`
	At     time.Time   `json:"at"`
}

// Artifacts references the generated documents attached to an application.
type Artifacts struct {
	CoverLetterID string `json:"cover_letter_id,omitempty"`
	TailoredCVID  string `json:"tailored_cv_id,omitempty"`
}

// Offer tracks the negotiated amounts once an offer arrives.
type Offer struct {
	Initial  float64 `json:"initial,omitempty"`
	Counter  float64 `json:"counter,omitempty"`
	Accepted float64 `json:"accepted,omitempty"`
}

// Application is the tracked record for one job. It is created when a job
// is tracked and mutated only through Apply; it is never deleted, only
// archived.
type Application struct {
	ID        string             `json:"id"`
	JobID     string             `json:"job_id"`
	State     State              `json:"state"`
	History   []TransitionRecord `json:"history"`
	Artifacts Artifacts          `json:"artifacts"`
	Offer     Offer              `json:"offer"`
	Archived  bool               `json:"archived,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewApplication creates a tracked application in the discovered state.
func NewApplication(jobID string) *Application {
	now := time.Now().UTC()
	return &Application{
		ID:        uuid.NewString(),
		JobID:     jobID,
		State:     StateDiscovered,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply resolves the event against the current state and, when it causes a
// transition, appends one history record. Idempotent replays leave both
// state and history untouched and report changed = false.
func (a *Application) Apply(event Event) (changed bool, err error) {
	outcome, err := Resolve(a.State, event.Kind)
	if err != nil {
		return false, err
	}
	if outcome.NoOp {
		return false, nil
	}

	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	// History must stay monotonic even when an external signal carries a
	// lagging timestamp.
	if last := a.lastTransition(); last != nil && at.Before(last.At) {
		at = last.At
	}

	a.History = append(a.History, TransitionRecord{
		From:   a.State,
		To:     outcome.State,
		Event:  event.Kind,
		Source: event.Source,
		Healed: outcome.Healed,
		At:     at,
	})
	a.State = outcome.State
	a.UpdatedAt = at

	if event.Kind == EventEmailOffer && event.OfferAmount > 0 {
		a.Offer.Initial = event.OfferAmount
	}
	if event.Kind == EventOfferAccepted && event.OfferAmount > 0 {
		a.Offer.Accepted = event.OfferAmount
	}

	return true, nil
}

// Archive marks the record as archived. Archived applications are kept for
// history but excluded from re-scoring and outreach.
func (a *Application) Archive() {
	a.Archived = true
	a.UpdatedAt = time.Now().UTC()
}

func (a *Application) lastTransition() *TransitionRecord {
	if len(a.History) == 0 {
		return nil
	}
	return &a.History[len(a.History)-1]
}
