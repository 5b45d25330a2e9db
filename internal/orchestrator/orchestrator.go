// Package orchestrator drives application records through the pipeline:
// intake (match and track), drafting (artifact generation), submission
// recording, and inbound email events. Stages are independently
// invokable; within one application all transitions are serialized.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/artifacts"
	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/lifecycle"
	"github.com/mhrabcak/jobpilot/internal/mailscan"
	"github.com/mhrabcak/jobpilot/internal/matching"
	"github.com/mhrabcak/jobpilot/internal/store"
)

// DefaultMatchThreshold gates tracking and artifact generation.
const DefaultMatchThreshold = 0.7

// casAttempts bounds re-reads on a lost state race.
const casAttempts = 3

// Deps carries the orchestrator's collaborators.
type Deps struct {
	Store     store.Store
	Matcher   *matching.Engine
	Generator *artifacts.Generator
	Logger    *zap.Logger
}

// Orchestrator owns lifecycle mutation. All writes to an application go
// through its per-application lock.
type Orchestrator struct {
	deps      *Deps
	threshold float64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMatchThreshold overrides the minimum score for tracking a job.
func WithMatchThreshold(threshold float64) Option {
	return func(o *Orchestrator) { o.threshold = threshold }
}

func New(deps *Deps, opts ...Option) (*Orchestrator, error) {
	if deps == nil || deps.Store == nil || deps.Matcher == nil || deps.Generator == nil {
		return nil, errors.New("orchestrator requires a store, a matcher and a generator")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	o := &Orchestrator{
		deps:      deps,
		threshold: DefaultMatchThreshold,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// lockFor returns the single-writer lock for an application id.
func (o *Orchestrator) lockFor(appID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[appID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[appID] = l
	}
	return l
}

// IntakeReport summarizes one intake pass.
type IntakeReport struct {
	Tracked     []string // application ids created
	BelowCutoff int
	AlreadySeen int
	Errors      map[string]error // posting id -> error
}

// Intake matches each posting against the profile and tracks the ones
// above the threshold. Postings already tracked are skipped; one
// failing posting never aborts the batch.
func (o *Orchestrator) Intake(ctx context.Context, profile *job.Profile, postings []*job.Posting) (*IntakeReport, error) {
	report := &IntakeReport{Errors: make(map[string]error)}

	for _, posting := range postings {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, err := o.deps.Store.ApplicationByJob(ctx, posting.ID); err == nil {
			report.AlreadySeen++
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			report.Errors[posting.ID] = err
			continue
		}

		result, err := o.deps.Matcher.Match(posting, profile)
		if err != nil {
			report.Errors[posting.ID] = err
			o.deps.Logger.Warn("match failed", zap.String("job_id", posting.ID), zap.Error(err))
			continue
		}

		if result.Score < o.threshold {
			report.BelowCutoff++
			o.deps.Logger.Debug("posting below match threshold",
				zap.String("job_id", posting.ID),
				zap.Float64("score", result.Score),
				zap.Float64("threshold", o.threshold),
			)
			continue
		}

		if err := o.deps.Store.SavePosting(ctx, posting); err != nil {
			report.Errors[posting.ID] = err
			continue
		}

		app := lifecycle.NewApplication(posting.ID)
		if _, err := app.Apply(lifecycle.Event{Kind: lifecycle.EventMatchComputed, Source: lifecycle.SourceAuto, At: result.ComputedAt}); err != nil {
			report.Errors[posting.ID] = err
			continue
		}
		if err := o.deps.Store.SaveApplication(ctx, app); err != nil {
			report.Errors[posting.ID] = err
			continue
		}

		report.Tracked = append(report.Tracked, app.ID)
		o.deps.Logger.Info("job tracked",
			zap.String("job_id", posting.ID),
			zap.String("application_id", app.ID),
			zap.Float64("score", result.Score),
		)
	}

	return report, nil
}

// Draft generates artifacts for every application in the matched state
// and advances it to drafted. Per-application failures are collected.
func (o *Orchestrator) Draft(ctx context.Context, profile *job.Profile) (map[string]error, error) {
	apps, err := o.deps.Store.Applications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	failures := make(map[string]error)
	for _, app := range apps {
		if app.State != lifecycle.StateMatched {
			continue
		}
		if err := o.draftOne(ctx, app.ID, profile); err != nil {
			failures[app.ID] = err
			o.deps.Logger.Warn("draft stage failed", zap.String("application_id", app.ID), zap.Error(err))
		}
	}
	return failures, nil
}

func (o *Orchestrator) draftOne(ctx context.Context, appID string, profile *job.Profile) error {
	lock := o.lockFor(appID)
	lock.Lock()
	defer lock.Unlock()

	app, err := o.deps.Store.Application(ctx, appID)
	if err != nil {
		return err
	}
	if app.State != lifecycle.StateMatched {
		return nil
	}

	posting, err := o.deps.Store.Posting(ctx, app.JobID)
	if err != nil {
		return fmt.Errorf("load posting %s: %w", app.JobID, err)
	}
	match, err := o.deps.Matcher.Match(posting, profile)
	if err != nil {
		return err
	}

	letter, err := o.deps.Generator.CoverLetter(ctx, posting, profile, match)
	if err != nil {
		return err
	}
	cv, err := o.deps.Generator.TailoredCV(ctx, posting, profile, match)
	if err != nil {
		return err
	}

	expected := app.State
	app.Artifacts = lifecycle.Artifacts{CoverLetterID: letter.ID, TailoredCVID: cv.ID}
	if _, err := app.Apply(lifecycle.Event{Kind: lifecycle.EventArtifactReady, Source: lifecycle.SourceAuto, At: letter.CreatedAt}); err != nil {
		return err
	}
	return o.deps.Store.CompareAndSwapState(ctx, app, expected)
}

// ApplyEvent serializes one event against an application, persisting
// through compare-and-swap so a replayed or racing event never corrupts
// the record. Invalid transitions surface as errors for the caller to
// treat as anomalies.
func (o *Orchestrator) ApplyEvent(ctx context.Context, appID string, event lifecycle.Event) (bool, error) {
	lock := o.lockFor(appID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < casAttempts; attempt++ {
		app, err := o.deps.Store.Application(ctx, appID)
		if err != nil {
			return false, err
		}

		expected := app.State
		changed, err := app.Apply(event)
		if err != nil {
			return false, err
		}
		if !changed {
			return false, nil
		}

		err = o.deps.Store.CompareAndSwapState(ctx, app, expected)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, store.ErrStateConflict) {
			return false, err
		}
		// Lost a race with another writer, re-read and replay.
	}
	return false, store.ErrStateConflict
}

// HandleEmailEvents applies classified email events. Out-of-order
// signals the state machine rejects are logged as anomalies and
// dropped, never propagated as batch failures.
func (o *Orchestrator) HandleEmailEvents(ctx context.Context, events []mailscan.Event) (applied int, anomalies int) {
	for _, e := range events {
		event := lifecycle.Event{
			Kind:        e.Kind,
			Source:      lifecycle.SourceEmail,
			At:          e.Message.ReceivedAt,
			OfferAmount: e.OfferAmount,
		}
		changed, err := o.ApplyEvent(ctx, e.ApplicationID, event)
		if err != nil {
			var invalid *lifecycle.InvalidTransitionError
			if errors.As(err, &invalid) {
				anomalies++
				o.deps.Logger.Warn("anomalous email event ignored",
					zap.String("application_id", e.ApplicationID),
					zap.String("event", string(e.Kind)),
					zap.String("state", string(invalid.From)),
				)
				continue
			}
			anomalies++
			o.deps.Logger.Error("email event failed",
				zap.String("application_id", e.ApplicationID),
				zap.String("event", string(e.Kind)),
				zap.Error(err),
			)
			continue
		}
		if changed {
			applied++
		}
	}
	return applied, anomalies
}

// Candidates lists non-terminal applications for the email scanner.
func (o *Orchestrator) Candidates(ctx context.Context) ([]mailscan.Candidate, error) {
	apps, err := o.deps.Store.Applications(ctx)
	if err != nil {
		return nil, err
	}

	var out []mailscan.Candidate
	for _, app := range apps {
		if app.State.IsTerminal() {
			continue
		}
		posting, err := o.deps.Store.Posting(ctx, app.JobID)
		if err != nil {
			o.deps.Logger.Warn("posting missing for application", zap.String("application_id", app.ID), zap.Error(err))
			continue
		}
		out = append(out, mailscan.Candidate{
			ApplicationID: app.ID,
			JobTitle:      posting.Title,
			Company:       posting.Company,
		})
	}
	return out, nil
}

// RecordSubmission marks an application as applied. Source records who
// confirmed the submission (manual, extension, auto-submit).
func (o *Orchestrator) RecordSubmission(ctx context.Context, appID string, source lifecycle.EventSource, at time.Time) (bool, error) {
	return o.ApplyEvent(ctx, appID, lifecycle.Event{
		Kind:   lifecycle.EventSubmissionConfirmed,
		Source: source,
		At:     at,
	})
}

// Withdraw requests withdrawal of an application. Valid from any
// non-terminal state.
func (o *Orchestrator) Withdraw(ctx context.Context, appID string, at time.Time) (bool, error) {
	return o.ApplyEvent(ctx, appID, lifecycle.Event{
		Kind:   lifecycle.EventWithdrawRequested,
		Source: lifecycle.SourceManual,
		At:     at,
	})
}

// IsWithdrawn reports whether the application reached the withdrawn
// state. Used by the outreach throttler for its pre-send check.
func (o *Orchestrator) IsWithdrawn(ctx context.Context, appID string) bool {
	app, err := o.deps.Store.Application(ctx, appID)
	if err != nil {
		return false
	}
	return app.State == lifecycle.StateWithdrawn
}
