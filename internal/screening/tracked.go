package screening

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/store"
)

const forceFlagSetMsg = "force flag is set"

type trackedFilter struct {
	ignore   bool
	disabled bool
	reason   string
}

// NewTracked creates a filter that removes postings already tracked in the store.
func NewTracked(ignore bool) Filter {
	return &trackedFilter{ignore: ignore}
}

func (f *trackedFilter) Name() string { return "tracked" }

func (f *trackedFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *trackedFilter) IsEnabled() bool { return !f.disabled }

func (f *trackedFilter) Validate(*Config) error { return nil }

func (f *trackedFilter) Apply(ctx context.Context, deps Deps, feed *job.Feed) (*job.Feed, Step, error) {
	initial := feed.Len()
	if f.ignore {
		if deps.Logger != nil {
			deps.Logger.Info("ignoring already tracked postings", zap.String("reason", forceFlagSetMsg))
		}
		return feed, Step{Initial: initial, Dropped: 0, Left: feed.Len()}, nil
	}

	if deps.Store == nil {
		return feed, Step{}, fmt.Errorf("store is required")
	}

	var tracked []string
	for _, p := range feed.Items {
		_, err := deps.Store.ApplicationByJob(ctx, p.ID)
		switch {
		case err == nil:
			tracked = append(tracked, p.ID)
		case errors.Is(err, store.ErrNotFound):
		default:
			return feed, Step{}, fmt.Errorf("looking up application for job %s: %w", p.ID, err)
		}
	}

	excluded := feed.Exclude(job.PostingIDField, tracked)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding postings already tracked",
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", feed.Len()),
		)
	}

	return feed, Step{Initial: initial, Dropped: len(excluded), Left: feed.Len()}, nil
}

func (f *trackedFilter) Status() Status {
	details := map[string]string{
		"exclude_tracked": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if reason == "" && f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}
