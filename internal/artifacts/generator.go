// Package artifacts produces job-specific application texts: cover
// letters and tailored CVs. Rendering is template substitution, not
// generation; opening and closing variants rotate deterministically so
// output is reproducible.
package artifacts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/ai"
	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/matching"
	"github.com/mhrabcak/jobpilot/internal/util"
)

// Kind distinguishes the artifact types.
type Kind string

const (
	KindCoverLetter = Kind(ai.KindCoverLetter)
	KindTailoredCV  = Kind(ai.KindTailoredCV)
)

// Artifact is one generated text tied to a job.
type Artifact struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// RenderError reports an unresolved required placeholder. A malformed
// artifact is never emitted silently.
type RenderError struct {
	Kind        Kind
	Placeholder string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: placeholder %s could not be resolved", e.Kind, e.Placeholder)
}

// Generator renders artifacts. The rotation index advances once per
// cover letter so consecutive letters use different variants while any
// single call stays reproducible.
type Generator struct {
	mu       sync.Mutex
	rotation int

	critic    ai.Critic
	logger    *zap.Logger
	now       func() time.Time
	maxLogLen int
}

// Option configures a Generator.
type Option func(*Generator)

// WithCritic enables the review pass after rendering. Optional; the
// deterministic rendering path never depends on it, and critique
// failures keep the rendered text.
func WithCritic(c ai.Critic) Option {
	return func(g *Generator) { g.critic = c }
}

// WithRotationStart seeds the variant rotation, used to resume across
// restarts.
func WithRotationStart(n int) Option {
	return func(g *Generator) { g.rotation = n }
}

func NewGenerator(logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		logger:    logger,
		now:       time.Now,
		maxLogLen: 120,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CoverLetter renders a cover letter for the posting. The match result
// supplies the skill overlap woven into the body.
func (g *Generator) CoverLetter(ctx context.Context, posting *job.Posting, profile *job.Profile, match *matching.Result) (*Artifact, error) {
	variant := g.nextVariant()

	vars := map[string]string{
		"COMPANY":  posting.Company,
		"ROLE":     posting.Title,
		"NAME":     profile.Contact.Name,
		"SKILLS":   joinSkills(match),
		"OPENING":  coverOpenings[variant%len(coverOpenings)],
		"CLOSING":  coverClosings[variant%len(coverClosings)],
		"LOCATION": posting.Location,
	}

	text, err := render(KindCoverLetter, coverLetterTemplate, vars, coverLetterRequired)
	if err != nil {
		return nil, err
	}

	text = g.maybeCritique(ctx, KindCoverLetter, text)

	art := g.artifact(posting.ID, KindCoverLetter, text)
	g.logger.Debug("cover letter rendered",
		zap.String("job_id", posting.ID),
		zap.Int("variant", variant%len(coverOpenings)),
		zap.String("preview", util.TruncateForLog(text, g.maxLogLen)),
	)
	return art, nil
}

// TailoredCV prepends a role-targeted summary block to the profile's CV
// text, highlighting the matched skills for this posting.
func (g *Generator) TailoredCV(ctx context.Context, posting *job.Posting, profile *job.Profile, match *matching.Result) (*Artifact, error) {
	vars := map[string]string{
		"COMPANY": posting.Company,
		"ROLE":    posting.Title,
		"NAME":    profile.Contact.Name,
		"SKILLS":  joinSkills(match),
		"YEARS":   fmt.Sprintf("%.0f", profile.YearsOfExperience()),
		"CV_BODY": strings.TrimSpace(profile.CVText),
	}

	text, err := render(KindTailoredCV, tailoredCVTemplate, vars, tailoredCVRequired)
	if err != nil {
		return nil, err
	}

	text = g.maybeCritique(ctx, KindTailoredCV, text)

	art := g.artifact(posting.ID, KindTailoredCV, text)
	g.logger.Debug("tailored cv rendered",
		zap.String("job_id", posting.ID),
		zap.Int("length", len(text)),
	)
	return art, nil
}

func (g *Generator) artifact(jobID string, kind Kind, text string) *Artifact {
	return &Artifact{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Kind:      kind,
		Text:      text,
		CreatedAt: g.now(),
	}
}

func (g *Generator) nextVariant() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.rotation
	g.rotation++
	return v
}

func (g *Generator) maybeCritique(ctx context.Context, kind Kind, text string) string {
	if g.critic == nil {
		return text
	}
	improved, err := g.critic.Critique(ctx, string(kind), text)
	if err != nil {
		g.logger.Warn("artifact critique failed, keeping rendered text", zap.String("kind", string(kind)), zap.Error(err))
		return text
	}
	if strings.TrimSpace(improved) == "" {
		return text
	}
	return improved
}

func joinSkills(match *matching.Result) string {
	if match == nil || len(match.Matched) == 0 {
		return ""
	}
	return strings.Join(match.Matched, ", ")
}
