package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/lifecycle"
	"github.com/mhrabcak/jobpilot/internal/market"
	"github.com/mhrabcak/jobpilot/internal/outreach"
)

// File wraps Memory with a JSON snapshot on disk so CLI invocations
// share state. Flush writes atomically via a temp file rename.
type File struct {
	*Memory
	path string
}

type snapshot struct {
	Applications []*lifecycle.Application `json:"applications,omitempty"`
	Postings     []*job.Posting           `json:"postings,omitempty"`
	Profiles     []*job.Profile           `json:"profiles,omitempty"`
	Samples      []market.Sample          `json:"samples,omitempty"`
	Outreach     []*outreach.Action       `json:"outreach,omitempty"`
}

// OpenFile loads the snapshot at path into a fresh Memory. A missing
// file starts empty.
func OpenFile(path string) (*File, error) {
	f := &File{Memory: NewMemory(), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}

	m := f.Memory
	for _, app := range snap.Applications {
		m.applications[app.ID] = app
		m.byJob[app.JobID] = app.ID
	}
	for _, posting := range snap.Postings {
		m.postings[posting.ID] = posting
	}
	for _, profile := range snap.Profiles {
		m.profiles[profile.ID] = profile
	}
	m.samples = snap.Samples
	m.outreachLog = snap.Outreach

	return f, nil
}

// Flush writes the current state back to disk.
func (f *File) Flush() error {
	f.mu.RLock()
	snap := snapshot{
		Samples:  f.samples,
		Outreach: f.outreachLog,
	}
	for _, app := range f.applications {
		snap.Applications = append(snap.Applications, app)
	}
	for _, posting := range f.postings {
		snap.Postings = append(snap.Postings, posting)
	}
	for _, profile := range f.profiles {
		snap.Profiles = append(snap.Profiles, profile)
	}
	f.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".jobpilot-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
