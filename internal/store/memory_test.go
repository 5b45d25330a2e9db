package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhrabcak/jobpilot/internal/lifecycle"
	"github.com/mhrabcak/jobpilot/internal/market"
	"github.com/mhrabcak/jobpilot/internal/outreach"
	"github.com/mhrabcak/jobpilot/internal/store"
)

func TestApplicationRoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	app := lifecycle.NewApplication("job-1")
	if err := m.SaveApplication(ctx, app); err != nil {
		t.Fatalf("SaveApplication: %v", err)
	}

	loaded, err := m.Application(ctx, app.ID)
	if err != nil {
		t.Fatalf("Application: %v", err)
	}
	if loaded.State != lifecycle.StateDiscovered || loaded.JobID != "job-1" {
		t.Errorf("unexpected loaded application: %+v", loaded)
	}

	// Mutating the loaded copy must not leak into the store.
	loaded.State = lifecycle.StateWithdrawn
	again, err := m.Application(ctx, app.ID)
	if err != nil {
		t.Fatalf("Application: %v", err)
	}
	if again.State != lifecycle.StateDiscovered {
		t.Error("store returned shared mutable state")
	}

	byJob, err := m.ApplicationByJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("ApplicationByJob: %v", err)
	}
	if byJob.ID != app.ID {
		t.Errorf("ApplicationByJob returned %s, want %s", byJob.ID, app.ID)
	}

	if _, err := m.Application(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCompareAndSwapState(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	app := lifecycle.NewApplication("job-1")
	if err := m.SaveApplication(ctx, app); err != nil {
		t.Fatalf("SaveApplication: %v", err)
	}

	updated, err := m.Application(ctx, app.ID)
	if err != nil {
		t.Fatalf("Application: %v", err)
	}
	if _, err := updated.Apply(lifecycle.Event{Kind: lifecycle.EventMatchComputed, Source: lifecycle.SourceAuto, At: time.Now()}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if err := m.CompareAndSwapState(ctx, updated, lifecycle.StateDiscovered); err != nil {
		t.Fatalf("CompareAndSwapState: %v", err)
	}

	// A second writer that still holds the old expected state loses.
	stale, _ := m.Application(ctx, app.ID)
	stale.State = lifecycle.StateDrafted
	err = m.CompareAndSwapState(ctx, stale, lifecycle.StateDiscovered)
	if !errors.Is(err, store.ErrStateConflict) {
		t.Fatalf("err = %v, want ErrStateConflict", err)
	}

	final, _ := m.Application(ctx, app.ID)
	if final.State != lifecycle.StateMatched {
		t.Errorf("state = %s, want matched", final.State)
	}
}

func TestMarketSamplesFilterByRoleFamily(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	for _, rf := range []string{"backend", "backend", "frontend"} {
		if err := m.SaveMarketSample(ctx, market.Sample{Source: "profesia", RoleFamily: rf}); err != nil {
			t.Fatalf("SaveMarketSample: %v", err)
		}
	}

	backend, err := m.MarketSamples(ctx, "Backend")
	if err != nil {
		t.Fatalf("MarketSamples: %v", err)
	}
	if len(backend) != 2 {
		t.Errorf("backend samples = %d, want 2", len(backend))
	}

	all, err := m.MarketSamples(ctx, "")
	if err != nil {
		t.Fatalf("MarketSamples: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all samples = %d, want 3", len(all))
	}
}

func TestOutreachLogAppendOnly(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	first := outreach.NewAction("r-1", "app-1", "intro-direct", "hello", time.Now())
	if err := m.AppendOutreach(ctx, first); err != nil {
		t.Fatalf("AppendOutreach: %v", err)
	}
	first.Result = outreach.ResultSent // caller's copy, must not affect the log

	logged, err := m.OutreachLog(ctx)
	if err != nil {
		t.Fatalf("OutreachLog: %v", err)
	}
	if len(logged) != 1 {
		t.Fatalf("log length = %d, want 1", len(logged))
	}
	if logged[0].Result != "" {
		t.Error("log entry mutated through caller's pointer")
	}
}
