package job

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the job board a posting was scraped from.
type Source string

const (
	SourceProfesia Source = "profesia.sk"
	SourceLinkedIn Source = "linkedin"
)

// Posting is a scraped job posting. It is immutable once scraped; the
// scraping collaborator is responsible for field normalization.
type Posting struct {
	ID          string      `json:"id,omitempty" yaml:"id"`
	ExternalID  string      `json:"external_id,omitempty" yaml:"external_id"`
	Source      Source      `json:"source,omitempty" yaml:"source"`
	Title       string      `json:"title,omitempty" yaml:"title"`
	Company     string      `json:"company,omitempty" yaml:"company"`
	Location    string      `json:"location,omitempty" yaml:"location"`
	Description string      `json:"description,omitempty" yaml:"description"`
	Required    string      `json:"required,omitempty" yaml:"required"`
	NiceToHave  string      `json:"nice_to_have,omitempty" yaml:"nice_to_have"`
	SalaryHint  *SalaryHint `json:"salary_hint,omitempty" yaml:"salary_hint"`
	URL         string      `json:"url,omitempty" yaml:"url"`
	PublishedAt time.Time   `json:"published_at,omitempty" yaml:"published_at"`
	ScrapedAt   time.Time   `json:"scraped_at,omitempty" yaml:"scraped_at"`
}

// SalaryHint is the salary range advertised in a posting, when present.
type SalaryHint struct {
	From     float64 `json:"from,omitempty" yaml:"from"`
	To       float64 `json:"to,omitempty" yaml:"to"`
	Currency string  `json:"currency,omitempty" yaml:"currency"`
}

// Midpoint returns the middle of the advertised range. A single-ended
// range collapses to the known end.
func (h *SalaryHint) Midpoint() float64 {
	switch {
	case h == nil:
		return 0
	case h.From > 0 && h.To > 0:
		return (h.From + h.To) / 2
	case h.From > 0:
		return h.From
	default:
		return h.To
	}
}

// Key is the deduplication key for a posting.
func (p *Posting) Key() string {
	return fmt.Sprintf("%s/%s", p.Source, p.ExternalID)
}

// Feed collects postings from the scraping collaborator, deduplicated
// by (source, external id).
type Feed struct {
	Items []*Posting

	seen map[string]struct{}
}

// Add appends a posting unless one with the same key was added before.
// It reports whether the posting was accepted.
func (f *Feed) Add(p *Posting) bool {
	if f.seen == nil {
		f.seen = make(map[string]struct{})
	}

	key := p.Key()
	if _, ok := f.seen[key]; ok {
		return false
	}

	f.seen[key] = struct{}{}
	f.Items = append(f.Items, p)
	return true
}

func (f *Feed) Len() int {
	return len(f.Items)
}

// Fields usable with Feed.Exclude.
const (
	PostingIDField      = "ID"
	PostingCompanyField = "Company"
)

func (p *Posting) GetStringField(name string) string {
	switch name {
	case PostingIDField:
		return p.ID
	case PostingCompanyField:
		return p.Company

	default:
		return ""
	}
}

// Exclude removes postings whose field matches any of the targets,
// case-insensitively. It returns the ids of the removed postings.
func (f *Feed) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	match := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		match[strings.ToLower(t)] = struct{}{}
	}

	var excluded []string
	kept := f.Items[:0]
	for _, p := range f.Items {
		if _, ok := match[strings.ToLower(p.GetStringField(name))]; ok {
			excluded = append(excluded, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	f.Items = kept
	return excluded
}
