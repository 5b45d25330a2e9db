package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/lifecycle"
	"github.com/mhrabcak/jobpilot/internal/market"
	"github.com/mhrabcak/jobpilot/internal/outreach"
)

// Memory is the in-process Store. Records are copied on the way in and
// out so callers never share mutable state with the store.
type Memory struct {
	mu           sync.RWMutex
	applications map[string]*lifecycle.Application
	byJob        map[string]string
	postings     map[string]*job.Posting
	profiles     map[string]*job.Profile
	samples      []market.Sample
	outreachLog  []*outreach.Action
}

func NewMemory() *Memory {
	return &Memory{
		applications: make(map[string]*lifecycle.Application),
		byJob:        make(map[string]string),
		postings:     make(map[string]*job.Posting),
		profiles:     make(map[string]*job.Profile),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) SaveApplication(_ context.Context, app *lifecycle.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications[app.ID] = cloneApplication(app)
	m.byJob[app.JobID] = app.ID
	return nil
}

func (m *Memory) Application(_ context.Context, id string) (*lifecycle.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneApplication(app), nil
}

func (m *Memory) ApplicationByJob(_ context.Context, jobID string) (*lifecycle.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byJob[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneApplication(m.applications[id]), nil
}

func (m *Memory) Applications(_ context.Context) ([]*lifecycle.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	apps := make([]*lifecycle.Application, 0, len(m.applications))
	for _, app := range m.applications {
		apps = append(apps, cloneApplication(app))
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.Before(apps[j].CreatedAt) })
	return apps, nil
}

func (m *Memory) CompareAndSwapState(_ context.Context, app *lifecycle.Application, expected lifecycle.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.applications[app.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.State != expected {
		return ErrStateConflict
	}
	m.applications[app.ID] = cloneApplication(app)
	return nil
}

func (m *Memory) SavePosting(_ context.Context, posting *job.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *posting
	m.postings[posting.ID] = &clone
	return nil
}

func (m *Memory) Posting(_ context.Context, id string) (*job.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	posting, ok := m.postings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *posting
	return &clone, nil
}

func (m *Memory) SaveProfile(_ context.Context, profile *job.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *profile
	clone.Skills = append([]string(nil), profile.Skills...)
	clone.Experience = append([]job.ExperienceEntry(nil), profile.Experience...)
	clone.TargetLocations = append([]string(nil), profile.TargetLocations...)
	m.profiles[profile.ID] = &clone
	return nil
}

func (m *Memory) Profile(_ context.Context, id string) (*job.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *profile
	clone.Skills = append([]string(nil), profile.Skills...)
	clone.Experience = append([]job.ExperienceEntry(nil), profile.Experience...)
	clone.TargetLocations = append([]string(nil), profile.TargetLocations...)
	return &clone, nil
}

func (m *Memory) SaveMarketSample(_ context.Context, sample market.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, sample)
	return nil
}

func (m *Memory) MarketSamples(_ context.Context, roleFamily string) ([]market.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []market.Sample
	for _, s := range m.samples {
		if roleFamily == "" || strings.EqualFold(s.RoleFamily, roleFamily) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) AppendOutreach(_ context.Context, action *outreach.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *action
	m.outreachLog = append(m.outreachLog, &clone)
	return nil
}

func (m *Memory) OutreachLog(_ context.Context) ([]*outreach.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*outreach.Action, 0, len(m.outreachLog))
	for _, a := range m.outreachLog {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func cloneApplication(app *lifecycle.Application) *lifecycle.Application {
	clone := *app
	clone.History = append([]lifecycle.TransitionRecord(nil), app.History...)
	return &clone
}
