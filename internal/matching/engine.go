// Package matching scores job postings against a candidate profile.
// Scores are deterministic for a given (posting, profile snapshot) pair
// and cached so recomputation is idempotent.
package matching

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/job"
)

// ErrInsufficientData is returned when a posting carries no extractable
// description text. The caller decides whether to skip the posting or
// pass it through with score zero.
var ErrInsufficientData = errors.New("posting has no extractable description text")

// Weights are the fixed linear-combination weights of the final score.
// They are documented constants, not learned parameters.
type Weights struct {
	Skills   float64
	Location float64
	Salary   float64
}

// DefaultWeights: skill overlap dominates, salary fit and location
// complete the blend.
var DefaultWeights = Weights{Skills: 0.65, Location: 0.15, Salary: 0.20}

// Skills found in the title or required section count double against the
// nice-to-have sections.
const (
	primarySectionWeight   = 2.0
	secondarySectionWeight = 1.0

	// neutralSalaryFit is used when the posting has no salary hint.
	neutralSalaryFit = 0.5
)

// Result is the outcome of scoring one posting against one profile
// snapshot. It is derived and recomputable, never a source of truth.
type Result struct {
	JobID       string    `json:"job_id"`
	ProfileHash string    `json:"profile_hash"`
	Score       float64   `json:"score"`
	Matched     []string  `json:"matched_skills,omitempty"`
	Missing     []string  `json:"missing_skills,omitempty"`
	ComputedAt  time.Time `json:"computed_at"`
}

// MatchedRatio is the share of the profile's taxonomy skills the posting
// asks for, used by the negotiation leverage rules.
func (r *Result) MatchedRatio() float64 {
	total := len(r.Matched) + len(r.Missing)
	if total == 0 {
		return 0
	}
	return float64(len(r.Matched)) / float64(total)
}

// Engine computes match results. Safe for concurrent use.
type Engine struct {
	taxonomy *Taxonomy
	weights  Weights
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[cacheKey]*Result
}

type cacheKey struct {
	jobID       string
	profileHash string
}

// NewEngine creates an Engine with the given taxonomy and weights.
func NewEngine(taxonomy *Taxonomy, weights Weights, logger *zap.Logger) *Engine {
	return &Engine{
		taxonomy: taxonomy,
		weights:  weights,
		logger:   logger,
		cache:    make(map[cacheKey]*Result),
	}
}

// Match scores a posting against a profile. Repeated calls with the same
// (posting, profile snapshot) return the cached result.
func (e *Engine) Match(posting *job.Posting, profile *job.Profile) (*Result, error) {
	key := cacheKey{jobID: posting.ID, profileHash: profile.SnapshotHash()}

	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	body := joinSections(
		htmlToText(posting.Description),
		htmlToText(posting.Required),
		htmlToText(posting.NiceToHave),
	)
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("job %s: %w", posting.ID, ErrInsufficientData)
	}

	primary := joinSections(posting.Title, htmlToText(posting.Required))
	secondary := joinSections(htmlToText(posting.Description), htmlToText(posting.NiceToHave))

	skillScore, matched, missing := e.scoreSkills(primary, secondary, profile)
	locationScore := scoreLocation(posting.Location, profile.TargetLocations)
	salaryScore := scoreSalary(posting.SalaryHint, profile.TargetSalary)

	score := e.weights.Skills*skillScore +
		e.weights.Location*locationScore +
		e.weights.Salary*salaryScore

	result := &Result{
		JobID:       posting.ID,
		ProfileHash: key.profileHash,
		Score:       math.Round(score*1000) / 1000,
		Matched:     matched,
		Missing:     missing,
		ComputedAt:  time.Now().UTC(),
	}

	if e.logger != nil {
		e.logger.Debug("match computed",
			zap.String("job_id", posting.ID),
			zap.Float64("score", result.Score),
			zap.Strings("matched_skills", matched),
			zap.Strings("missing_skills", missing),
		)
	}

	e.mu.Lock()
	e.cache[key] = result
	e.mu.Unlock()

	return result, nil
}

// scoreSkills computes the weighted overlap ratio between posting skills
// and profile skills.
func (e *Engine) scoreSkills(primary, secondary string, profile *job.Profile) (score float64, matched, missing []string) {
	weights := make(map[string]float64)
	for _, skill := range e.taxonomy.Extract(secondary) {
		weights[skill] = secondarySectionWeight
	}
	for _, skill := range e.taxonomy.Extract(primary) {
		weights[skill] = primarySectionWeight
	}
	if len(weights) == 0 {
		return 0, nil, nil
	}

	have := make(map[string]bool, len(profile.Skills))
	for _, skill := range profile.Skills {
		have[e.taxonomy.Canonical(skill)] = true
	}

	var total, overlap float64
	for skill, weight := range weights {
		total += weight
		if have[skill] {
			overlap += weight
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	return overlap / total, matched, missing
}

func scoreLocation(location string, targets []string) float64 {
	lower := strings.ToLower(location)
	for _, target := range targets {
		target = strings.ToLower(strings.TrimSpace(target))
		if target != "" && strings.Contains(lower, target) {
			return 1
		}
	}
	return 0
}

// scoreSalary inverts the distance between the posting's salary hint and
// the target, clipped to [0,1]. Postings without a hint score neutral.
func scoreSalary(hint *job.SalaryHint, target float64) float64 {
	if hint == nil || target <= 0 {
		return neutralSalaryFit
	}
	mid := hint.Midpoint()
	if mid <= 0 {
		return neutralSalaryFit
	}
	distance := math.Abs(mid-target) / target
	if distance > 1 {
		distance = 1
	}
	return 1 - distance
}

// Scored pairs a posting with its match result for ranking.
type Scored struct {
	Posting *job.Posting
	Result  *Result
}

// Rank orders scored postings best first. Equal scores are broken by
// posting recency.
func Rank(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Result.Score != items[j].Result.Score {
			return items[i].Result.Score > items[j].Result.Score
		}
		return items[i].Posting.PublishedAt.After(items[j].Posting.PublishedAt)
	})
}

func htmlToText(s string) string {
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

func joinSections(sections ...string) string {
	var parts []string
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
