package lifecycle_test

import (
	"testing"
	"time"

	"github.com/mhrabcak/jobpilot/internal/lifecycle"
)

func advanceTo(t *testing.T, app *lifecycle.Application, events ...lifecycle.EventKind) {
	t.Helper()
	for _, kind := range events {
		if _, err := app.Apply(lifecycle.Event{Kind: kind, Source: lifecycle.SourceAuto}); err != nil {
			t.Fatalf("applying %s: %v", kind, err)
		}
	}
}

func TestApplyAppendsHistory(t *testing.T) {
	app := lifecycle.NewApplication("job-1")

	advanceTo(t, app,
		lifecycle.EventMatchComputed,
		lifecycle.EventArtifactReady,
		lifecycle.EventSubmissionConfirmed,
	)

	if app.State != lifecycle.StateApplied {
		t.Fatalf("expected applied, got %s", app.State)
	}
	if len(app.History) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(app.History))
	}
	if app.History[2].From != lifecycle.StateDrafted || app.History[2].To != lifecycle.StateApplied {
		t.Errorf("unexpected last transition: %+v", app.History[2])
	}
}

func TestApplyReplayIsNoOp(t *testing.T) {
	app := lifecycle.NewApplication("job-1")
	advanceTo(t, app, lifecycle.EventMatchComputed)

	before := len(app.History)
	changed, err := app.Apply(lifecycle.Event{Kind: lifecycle.EventMatchComputed, Source: lifecycle.SourceAuto})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("replay should report changed = false")
	}
	if app.State != lifecycle.StateMatched || len(app.History) != before {
		t.Errorf("replay changed state or history: state=%s history=%d", app.State, len(app.History))
	}
}

func TestOfferEmailWhileAppliedMovesToOffered(t *testing.T) {
	app := lifecycle.NewApplication("job-1")
	advanceTo(t, app,
		lifecycle.EventMatchComputed,
		lifecycle.EventArtifactReady,
		lifecycle.EventSubmissionConfirmed,
	)

	before := len(app.History)
	changed, err := app.Apply(lifecycle.Event{
		Kind:        lifecycle.EventEmailOffer,
		Source:      lifecycle.SourceEmail,
		OfferAmount: 3500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !changed || app.State != lifecycle.StateOffered {
		t.Fatalf("expected offered, got changed=%v state=%s", changed, app.State)
	}
	if len(app.History) != before+1 {
		t.Fatalf("expected exactly one appended entry, got %d new", len(app.History)-before)
	}

	last := app.History[len(app.History)-1]
	if last.Source != lifecycle.SourceEmail || !last.Healed {
		t.Errorf("expected healed email_event entry, got %+v", last)
	}
	if app.Offer.Initial != 3500 {
		t.Errorf("expected initial offer 3500, got %v", app.Offer.Initial)
	}
}

func TestApplyKeepsHistoryMonotonic(t *testing.T) {
	app := lifecycle.NewApplication("job-1")

	now := time.Now().UTC()
	if _, err := app.Apply(lifecycle.Event{Kind: lifecycle.EventMatchComputed, Source: lifecycle.SourceAuto, At: now}); err != nil {
		t.Fatal(err)
	}

	// Lagging external timestamp must not move history backwards.
	if _, err := app.Apply(lifecycle.Event{Kind: lifecycle.EventArtifactReady, Source: lifecycle.SourceAuto, At: now.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(app.History); i++ {
		if app.History[i].At.Before(app.History[i-1].At) {
			t.Fatalf("history not monotonic: %v before %v", app.History[i].At, app.History[i-1].At)
		}
	}
}

func TestWithdrawIsTerminal(t *testing.T) {
	app := lifecycle.NewApplication("job-1")
	advanceTo(t, app, lifecycle.EventMatchComputed, lifecycle.EventWithdrawRequested)

	if app.State != lifecycle.StateWithdrawn {
		t.Fatalf("expected withdrawn, got %s", app.State)
	}

	if _, err := app.Apply(lifecycle.Event{Kind: lifecycle.EventArtifactReady, Source: lifecycle.SourceAuto}); err == nil {
		t.Error("expected error applying an event to a terminal application")
	}
}
