package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Export is the document the scraping browser extension writes: a
// metadata header plus loosely typed posting items.
type Export struct {
	ScrapedWith string           `json:"scraped_with,omitempty"`
	ScrapedAt   time.Time        `json:"scraped_at,omitempty"`
	Items       []map[string]any `json:"items"`
}

// FeedFromExport parses a scraper export document into a deduplicated
// feed. Items are decoded leniently so extension versions can add
// fields without breaking older readers.
func FeedFromExport(data []byte) (*Feed, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	var postings []*Posting
	cfg := &mapstructure.DecoderConfig{
		Metadata:   nil,
		Result:     &postings,
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(export.Items); err != nil {
		return nil, fmt.Errorf("decode export items: %w", err)
	}

	feed := &Feed{}
	for _, p := range postings {
		if p.ID == "" {
			p.ID = p.Key()
		}
		if p.ScrapedAt.IsZero() {
			p.ScrapedAt = export.ScrapedAt
		}
		feed.Add(p)
	}
	return feed, nil
}
