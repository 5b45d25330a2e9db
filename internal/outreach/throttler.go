package outreach

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/retry"
	"github.com/mhrabcak/jobpilot/internal/util"
)

// Sender performs the external send. Implemented by the outreach-send
// collaborator; it must respect the context deadline.
type Sender interface {
	Send(ctx context.Context, action *Action) error
}

// Confirmer gates network-visible actions behind manual approval.
type Confirmer interface {
	Confirm(action *Action) (bool, error)
}

// Deps carries the throttler's collaborators. Window is shared across
// every throttler in the process; the others are per-invocation.
type Deps struct {
	Window *Window
	Sender Sender
	// Confirmer is optional. When set, every action needs approval
	// before any network side effect.
	Confirmer Confirmer
	// Withdrawn reports whether the application behind an action was
	// withdrawn. Checked immediately before the send side effect.
	Withdrawn func(applicationID string) bool
	Logger    *zap.Logger
}

const (
	defaultMinSpacing  = 30 * time.Second
	defaultMaxSpacing  = 3 * time.Minute
	defaultSendTimeout = 45 * time.Second
)

// Throttler drains a queue of pending actions within the window budget.
type Throttler struct {
	deps *Deps

	minSpacing  time.Duration
	maxSpacing  time.Duration
	sendTimeout time.Duration
	retryCfg    retry.Config

	// wait and spacing are replaceable in tests.
	wait    func(ctx context.Context, d time.Duration) error
	spacing func() time.Duration
}

// Option configures a Throttler.
type Option func(*Throttler)

// WithSpacing bounds the randomized pause between consecutive sends.
func WithSpacing(min, max time.Duration) Option {
	return func(t *Throttler) {
		t.minSpacing = min
		t.maxSpacing = max
	}
}

// WithSendTimeout bounds each individual send attempt.
func WithSendTimeout(d time.Duration) Option {
	return func(t *Throttler) { t.sendTimeout = d }
}

// WithRetryConfig overrides the send retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(t *Throttler) { t.retryCfg = cfg }
}

func NewThrottler(deps *Deps, opts ...Option) (*Throttler, error) {
	if deps == nil || deps.Window == nil || deps.Sender == nil {
		return nil, errors.New("outreach throttler requires a window and a sender")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	t := &Throttler{
		deps:        deps,
		minSpacing:  defaultMinSpacing,
		maxSpacing:  defaultMaxSpacing,
		sendTimeout: defaultSendTimeout,
		retryCfg:    retry.DefaultConfig(),
		wait:        util.WaitFor,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxSpacing < t.minSpacing {
		t.maxSpacing = t.minSpacing
	}
	t.spacing = func() time.Duration {
		span := t.maxSpacing - t.minSpacing
		if span <= 0 {
			return t.minSpacing
		}
		return t.minSpacing + rand.N(span)
	}
	return t, nil
}

// Report summarizes one queue pass.
type Report struct {
	Sent        int
	Failed      int
	RateLimited int
	Withdrawn   int
	Declined    int
}

// Process walks the queue in order and resolves each pending action.
// Actions beyond the window budget are marked skipped-rate-limit and
// stay in the queue for the next window; nothing is dropped. Processing
// stops early only on context cancellation.
func (t *Throttler) Process(ctx context.Context, queue []*Action) (*Report, error) {
	report := &Report{}
	sentAny := false

	for _, action := range queue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !action.Pending() {
			continue
		}

		if t.deps.Confirmer != nil {
			ok, err := t.deps.Confirmer.Confirm(action)
			if err != nil {
				return report, fmt.Errorf("confirm outreach action %s: %w", action.ID, err)
			}
			if !ok {
				action.Result = ResultSkippedDeclined
				report.Declined++
				t.deps.Logger.Info("outreach action declined", zap.String("action_id", action.ID), zap.String("target", action.TargetID))
				continue
			}
		}

		if !t.deps.Window.TryReserve() {
			action.Result = ResultSkippedRateLimit
			report.RateLimited++
			t.deps.Logger.Info("outreach budget exhausted, action stays queued",
				zap.String("action_id", action.ID),
				zap.String("target", action.TargetID),
			)
			continue
		}

		// Spacing applies between sends, not before the first one.
		if sentAny {
			if err := t.wait(ctx, t.spacing()); err != nil {
				t.deps.Window.Release()
				return report, err
			}
		}

		// Withdrawal check sits directly before the side effect.
		if t.deps.Withdrawn != nil && action.ApplicationID != "" && t.deps.Withdrawn(action.ApplicationID) {
			t.deps.Window.Release()
			action.Result = ResultSkippedWithdrawn
			report.Withdrawn++
			t.deps.Logger.Info("outreach action withdrawn before send",
				zap.String("action_id", action.ID),
				zap.String("application_id", action.ApplicationID),
			)
			continue
		}

		if err := t.send(ctx, action); err != nil {
			action.Result = ResultFailed
			report.Failed++
			t.deps.Logger.Warn("outreach send failed permanently",
				zap.String("action_id", action.ID),
				zap.String("target", action.TargetID),
				zap.Int("attempts", action.Attempts),
				zap.Error(err),
			)
		} else {
			now := time.Now()
			action.SentAt = &now
			action.Result = ResultSent
			report.Sent++
			t.deps.Logger.Info("outreach action sent",
				zap.String("action_id", action.ID),
				zap.String("target", action.TargetID),
				zap.String("template", action.TemplateID),
			)
		}
		sentAny = true
	}

	return report, nil
}

// send runs the external call with a per-attempt timeout. Timeouts come
// back as retryable TimeoutError; other send errors are permanent.
func (t *Throttler) send(ctx context.Context, action *Action) error {
	_, err := retry.Do(ctx, t.retryCfg, func() (struct{}, error) {
		action.Attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, t.sendTimeout)
		defer cancel()

		start := time.Now()
		err := t.deps.Sender.Send(attemptCtx, action)
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return struct{}{}, retry.Retryable(&TimeoutError{
				TargetID: action.TargetID,
				Elapsed:  time.Since(start),
			})
		}
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			return struct{}{}, retry.Retryable(err)
		}
		return struct{}{}, err
	})
	return err
}
