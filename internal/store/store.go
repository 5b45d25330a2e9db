// Package store defines the persistence contract the pipeline depends
// on and an in-memory implementation used by the CLI and tests. A
// database-backed implementation plugs in behind the same interface.
package store

import (
	"context"
	"errors"

	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/lifecycle"
	"github.com/mhrabcak/jobpilot/internal/market"
	"github.com/mhrabcak/jobpilot/internal/outreach"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned by CompareAndSwapState when the
	// stored state no longer matches the expected one. Callers treat it
	// as a lost race and re-read.
	ErrStateConflict = errors.New("application state conflict")
)

// Store is the persistence boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveApplication(ctx context.Context, app *lifecycle.Application) error
	Application(ctx context.Context, id string) (*lifecycle.Application, error)
	ApplicationByJob(ctx context.Context, jobID string) (*lifecycle.Application, error)
	Applications(ctx context.Context) ([]*lifecycle.Application, error)
	// CompareAndSwapState persists the application only if its stored
	// state still equals expected, supporting idempotent replay across
	// concurrent writers.
	CompareAndSwapState(ctx context.Context, app *lifecycle.Application, expected lifecycle.State) error

	SavePosting(ctx context.Context, posting *job.Posting) error
	Posting(ctx context.Context, id string) (*job.Posting, error)

	SaveProfile(ctx context.Context, profile *job.Profile) error
	Profile(ctx context.Context, id string) (*job.Profile, error)

	SaveMarketSample(ctx context.Context, sample market.Sample) error
	MarketSamples(ctx context.Context, roleFamily string) ([]market.Sample, error)

	AppendOutreach(ctx context.Context, action *outreach.Action) error
	OutreachLog(ctx context.Context) ([]*outreach.Action, error)
}
