package screening

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/job"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes postings listed in the configured exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, feed *job.Feed) (*job.Feed, Step, error) {
	initial := feed.Len()
	if f.path == "" {
		return feed, Step{Initial: initial, Dropped: 0, Left: feed.Len()}, nil
	}

	excluded, err := job.ExclusionsFromFile(f.path)
	if err != nil {
		return feed, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	removed := feed.Exclude(job.PostingIDField, excluded.IDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding postings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", feed.Len()),
		)
	}

	return feed, Step{Initial: initial, Dropped: len(removed), Left: feed.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
