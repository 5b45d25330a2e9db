package screening

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/job"
)

type companiesFilter struct {
	companies []string
}

// NewCompanies creates a filter that removes postings by companies configured in the config.
func NewCompanies() Filter {
	return &companiesFilter{}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(string) {}

func (f *companiesFilter) IsEnabled() bool { return true }

func (f *companiesFilter) Validate(cfg *Config) error {
	f.companies = nil
	if cfg != nil {
		f.companies = append(f.companies, cfg.Companies...)
	}
	return nil
}

func (f *companiesFilter) Apply(_ context.Context, deps Deps, feed *job.Feed) (*job.Feed, Step, error) {
	initial := feed.Len()
	if len(f.companies) == 0 {
		return feed, Step{Initial: initial, Dropped: 0, Left: feed.Len()}, nil
	}

	excluded := feed.Exclude(job.PostingCompanyField, f.companies)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding postings by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", feed.Len()),
		)
	}

	return feed, Step{Initial: initial, Dropped: len(excluded), Left: feed.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
