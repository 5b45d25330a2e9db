// Package outreach rate-limits and sequences external contact actions.
// Sends go through a shared rolling-window budget so the external
// platform never sees bursts, and every decision is recorded on the
// action itself, append-only.
package outreach

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result records the outcome of processing one action.
type Result string

const (
	ResultSent             Result = "sent"
	ResultFailed           Result = "failed"
	ResultSkippedRateLimit Result = "skipped-rate-limit"
	ResultSkippedWithdrawn Result = "skipped-withdrawn"
	ResultSkippedDeclined  Result = "skipped-declined"
)

// Action is one queued contact attempt. Mutated only by the Throttler
// that processes it.
type Action struct {
	ID            string     `json:"id"`
	TargetID      string     `json:"target_id"`
	ApplicationID string     `json:"application_id,omitempty"`
	TemplateID    string     `json:"template_id"`
	Message       string     `json:"message"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	Result        Result     `json:"result,omitempty"`
	Attempts      int        `json:"attempts"`
}

// NewAction queues a message for the target.
func NewAction(targetID, applicationID, templateID, message string, scheduledAt time.Time) *Action {
	return &Action{
		ID:            uuid.NewString(),
		TargetID:      targetID,
		ApplicationID: applicationID,
		TemplateID:    templateID,
		Message:       message,
		ScheduledAt:   scheduledAt,
	}
}

// Pending reports whether the action still needs processing. Rate-limit
// skips stay pending for the next window.
func (a *Action) Pending() bool {
	switch a.Result {
	case "", ResultSkippedRateLimit:
		return true
	}
	return false
}

// TimeoutError marks an external send that did not complete in time.
// It is retryable up to the throttler's attempt budget.
type TimeoutError struct {
	TargetID string
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("outreach send to %s timed out after %s", e.TargetID, e.Elapsed)
}

// Window is the rolling send-count budget shared by every throttler
// invocation in the process. All access goes through its mutex.
type Window struct {
	mu        sync.Mutex
	span      time.Duration
	budget    int
	sentTimes []time.Time
	now       func() time.Time
}

const (
	// DefaultBudget is the per-window send allowance.
	DefaultBudget = 10
	// DefaultSpan is the rolling window length.
	DefaultSpan = 24 * time.Hour
)

func NewWindow(budget int, span time.Duration) *Window {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if span <= 0 {
		span = DefaultSpan
	}
	return &Window{span: span, budget: budget, now: time.Now}
}

// TryReserve consumes one slot if the rolling window has capacity.
func (w *Window) TryReserve() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)
	if len(w.sentTimes) >= w.budget {
		return false
	}
	w.sentTimes = append(w.sentTimes, now)
	return true
}

// Release returns a slot reserved for a send that did not happen.
func (w *Window) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n := len(w.sentTimes); n > 0 {
		w.sentTimes = w.sentTimes[:n-1]
	}
}

// Remaining reports how many sends the current window still allows.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return w.budget - len(w.sentTimes)
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	kept := w.sentTimes[:0]
	for _, t := range w.sentTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.sentTimes = kept
}
