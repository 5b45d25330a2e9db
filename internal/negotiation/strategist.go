// Package negotiation computes counter-offers and leverage points from
// aggregated market data. Strategy generation is deterministic for a
// given input: the leverage rule set is evaluated in a fixed priority
// order, never randomized.
package negotiation

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/market"
)

// ErrMarketDataUnavailable is returned when the aggregator reported no
// usable data. The caller decides whether to fall back to a target-only
// heuristic or abort.
var ErrMarketDataUnavailable = errors.New("market data unavailable for negotiation")

// LeverageKind identifies one justification rule.
type LeverageKind string

const (
	LeverageCompetingOffer    LeverageKind = "competing_offer"
	LeverageAboveMarketSkills LeverageKind = "above_market_skill_match"
	LeverageBelowMarketOffer  LeverageKind = "below_market_current_offer"
	LeverageTenure            LeverageKind = "tenure_experience"
)

// LeveragePoint is a stated justification included in a strategy.
type LeveragePoint struct {
	Kind   LeverageKind `json:"kind"`
	Reason string       `json:"reason"`
}

// Input describes one negotiation situation.
type Input struct {
	JobTitle       string
	Company        string
	CurrentOffer   float64
	TargetSalary   float64
	CompetingOffer float64
	// MatchedSkillRatio is the share of the posting's skills the
	// candidate covers, taken from the match result.
	MatchedSkillRatio float64
	YearsExperience   float64
	Market            *market.Summary
}

// Strategy is the computed negotiation recommendation.
type Strategy struct {
	CounterOffer    float64         `json:"counter_offer"`
	MinAcceptable   float64         `json:"min_acceptable"`
	Ceiling         float64         `json:"ceiling"`
	ShouldNegotiate bool            `json:"should_negotiate"`
	Leverage        []LeveragePoint `json:"leverage,omitempty"`
	MarketMedian    float64         `json:"market_median"`
	Scripts         Scripts         `json:"scripts"`
}

const (
	// ceilingFactor bounds the counter at 1.25× the market p75 so the
	// generated scripts stay realistic.
	ceilingFactor = 1.25
	// targetBlendWeight blends the candidate target with the market p75.
	targetBlendWeight = 0.5
	// DefaultRaiseFloor is the minimum raise worth asking for.
	DefaultRaiseFloor = 150.0

	skillLeverageThreshold = 0.75
	tenureLeverageYears    = 5.0
	minAcceptableFactor    = 1.05
)

// Strategist proposes counter-offers.
type Strategist struct {
	raiseFloor float64
	logger     *zap.Logger
}

func NewStrategist(raiseFloor float64, logger *zap.Logger) *Strategist {
	if raiseFloor <= 0 {
		raiseFloor = DefaultRaiseFloor
	}
	return &Strategist{raiseFloor: raiseFloor, logger: logger}
}

// Propose computes the counter-offer and ranked leverage points. The
// counter is the larger of (current offer + raise floor) and a blend of
// target and market p75, clamped to the sanity ceiling.
func (s *Strategist) Propose(in Input) (*Strategy, error) {
	if in.Market == nil || in.Market.Confidence == market.ConfidenceNone {
		return nil, ErrMarketDataUnavailable
	}

	p75 := in.Market.P75
	ceiling := ceilingFactor * p75

	blend := targetBlendWeight*in.TargetSalary + (1-targetBlendWeight)*p75
	counter := math.Round(math.Max(in.CurrentOffer+s.raiseFloor, blend))
	// Rounding must never push the counter past the ceiling, so a
	// fractional ceiling clamps downward.
	if counter > ceiling {
		counter = math.Floor(ceiling)
	}

	strategy := &Strategy{
		CounterOffer:    counter,
		MinAcceptable:   math.Round(in.CurrentOffer * minAcceptableFactor),
		Ceiling:         ceiling,
		ShouldNegotiate: counter > in.CurrentOffer,
		MarketMedian:    in.Market.Median,
		Leverage:        s.leverage(in),
	}
	strategy.Scripts = renderScripts(in, strategy)

	if s.logger != nil {
		s.logger.Info("negotiation strategy computed",
			zap.String("company", in.Company),
			zap.Float64("current_offer", in.CurrentOffer),
			zap.Float64("counter_offer", strategy.CounterOffer),
			zap.Float64("ceiling", strategy.Ceiling),
			zap.Int("leverage_points", len(strategy.Leverage)),
		)
	}

	return strategy, nil
}

// leverage evaluates the rule set in fixed priority order: competing
// offer, above-market skill match, below-market current offer, tenure.
// Only rules whose precondition holds are included.
func (s *Strategist) leverage(in Input) []LeveragePoint {
	var points []LeveragePoint

	if in.CompetingOffer > 0 {
		points = append(points, LeveragePoint{
			Kind:   LeverageCompetingOffer,
			Reason: fmt.Sprintf("a competing offer of €%.0f is on the table", in.CompetingOffer),
		})
	}

	if in.MatchedSkillRatio > skillLeverageThreshold {
		points = append(points, LeveragePoint{
			Kind:   LeverageAboveMarketSkills,
			Reason: fmt.Sprintf("the profile covers %.0f%% of the role's required skills", in.MatchedSkillRatio*100),
		})
	}

	if in.CurrentOffer > 0 && in.Market != nil && in.CurrentOffer < in.Market.Median {
		points = append(points, LeveragePoint{
			Kind:   LeverageBelowMarketOffer,
			Reason: fmt.Sprintf("the current offer is €%.0f below the market median", in.Market.Median-in.CurrentOffer),
		})
	}

	if in.YearsExperience >= tenureLeverageYears {
		points = append(points, LeveragePoint{
			Kind:   LeverageTenure,
			Reason: fmt.Sprintf("%.0f years of relevant experience", in.YearsExperience),
		})
	}

	return points
}
