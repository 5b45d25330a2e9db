package job

import (
	"encoding/json"
	"os"
	"time"
)

// Exclusions is a persisted list of postings the user never wants to
// see again, independent of application state.
type Exclusions struct {
	Items []*Exclusion
}

type Exclusion struct {
	ID         string    `json:"id"`
	URL        string    `json:"url,omitempty"`
	Company    string    `json:"company,omitempty"`
	ExcludedAt time.Time `json:"excluded_at"`
}

// ToExclusions converts the feed's current postings into exclusion
// entries stamped now.
func (f *Feed) ToExclusions() *Exclusions {
	excluded := &Exclusions{}
	for _, p := range f.Items {
		excluded.Items = append(excluded.Items, &Exclusion{
			ID:         p.ID,
			URL:        p.URL,
			Company:    p.Company,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

func ExclusionsFromFile(path string) (*Exclusions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Exclusions{}, nil
	}

	var excluded Exclusions
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *Exclusions) Append(s *Exclusions) {
	e.Items = append(e.Items, s.Items...)
}

func (e *Exclusions) IDs() []string {
	ids := make([]string, 0)
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (e *Exclusions) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
