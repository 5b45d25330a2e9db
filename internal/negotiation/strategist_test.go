package negotiation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/mhrabcak/jobpilot/internal/market"
	"github.com/mhrabcak/jobpilot/internal/negotiation"
)

func summary(median, p75 float64, conf market.Confidence) *market.Summary {
	return &market.Summary{
		RoleFamily: "backend",
		Region:     "bratislava",
		Median:     median,
		P75:        p75,
		Confidence: conf,
	}
}

func TestProposeClampsToCeiling(t *testing.T) {
	s := negotiation.NewStrategist(0, nil)

	st, err := s.Propose(negotiation.Input{
		JobTitle:     "Backend Engineer",
		Company:      "Acme",
		CurrentOffer: 3500,
		TargetSalary: 4000,
		Market:       summary(3200, 3400, market.ConfidenceHigh),
	})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	ceiling := 1.25 * 3400
	if st.CounterOffer > ceiling {
		t.Errorf("counter %.0f exceeds ceiling %.0f", st.CounterOffer, ceiling)
	}
	// max(3500+150, 0.5*4000+0.5*3400) = 3700, under the ceiling.
	if st.CounterOffer != 3700 {
		t.Errorf("counter = %.0f, want 3700", st.CounterOffer)
	}
	if !st.ShouldNegotiate {
		t.Error("expected ShouldNegotiate")
	}
}

func TestProposeFractionalCeilingNeverExceeded(t *testing.T) {
	s := negotiation.NewStrategist(0, nil)

	// A fractional p75 makes the ceiling fractional too; rounding the
	// clamped counter must not push it back above the bound.
	st, err := s.Propose(negotiation.Input{
		CurrentOffer: 3500,
		TargetSalary: 6000,
		Market:       summary(3200, 3399.6, market.ConfidenceHigh),
	})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	ceiling := 1.25 * 3399.6
	if st.CounterOffer > ceiling {
		t.Errorf("counter %.2f exceeds ceiling %.2f", st.CounterOffer, ceiling)
	}
	if st.CounterOffer != 4249 {
		t.Errorf("counter = %.2f, want 4249", st.CounterOffer)
	}
	if st.Ceiling != ceiling {
		t.Errorf("ceiling = %.2f, want %.2f", st.Ceiling, ceiling)
	}
}

func TestProposeRaiseFloorWins(t *testing.T) {
	s := negotiation.NewStrategist(150, nil)

	st, err := s.Propose(negotiation.Input{
		CurrentOffer: 4000,
		TargetSalary: 3800,
		Market:       summary(3800, 4000, market.ConfidenceHigh),
	})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	// Blend is 3900, current offer plus floor is 4150.
	if st.CounterOffer != 4150 {
		t.Errorf("counter = %.0f, want 4150", st.CounterOffer)
	}
}

func TestProposeNoMarketData(t *testing.T) {
	s := negotiation.NewStrategist(0, nil)

	_, err := s.Propose(negotiation.Input{
		CurrentOffer: 3000,
		Market:       summary(0, 0, market.ConfidenceNone),
	})
	if !errors.Is(err, negotiation.ErrMarketDataUnavailable) {
		t.Fatalf("err = %v, want ErrMarketDataUnavailable", err)
	}

	_, err = s.Propose(negotiation.Input{CurrentOffer: 3000})
	if !errors.Is(err, negotiation.ErrMarketDataUnavailable) {
		t.Fatalf("nil market: err = %v, want ErrMarketDataUnavailable", err)
	}
}

func TestLeveragePriorityOrder(t *testing.T) {
	s := negotiation.NewStrategist(0, nil)

	st, err := s.Propose(negotiation.Input{
		CurrentOffer:      3000,
		TargetSalary:      3600,
		CompetingOffer:    3400,
		MatchedSkillRatio: 0.9,
		YearsExperience:   7,
		Market:            summary(3300, 3500, market.ConfidenceHigh),
	})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	want := []negotiation.LeverageKind{
		negotiation.LeverageCompetingOffer,
		negotiation.LeverageAboveMarketSkills,
		negotiation.LeverageBelowMarketOffer,
		negotiation.LeverageTenure,
	}
	if len(st.Leverage) != len(want) {
		t.Fatalf("got %d leverage points, want %d", len(st.Leverage), len(want))
	}
	for i, k := range want {
		if st.Leverage[i].Kind != k {
			t.Errorf("leverage[%d] = %s, want %s", i, st.Leverage[i].Kind, k)
		}
	}
}

func TestSkillLeverageThreshold(t *testing.T) {
	s := negotiation.NewStrategist(0, nil)

	tests := []struct {
		name  string
		ratio float64
		want  bool
	}{
		{"above threshold", 0.80, true},
		{"at threshold", 0.75, false},
		{"below threshold", 0.50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := s.Propose(negotiation.Input{
				CurrentOffer:      3500,
				TargetSalary:      3500,
				MatchedSkillRatio: tt.ratio,
				Market:            summary(3000, 3400, market.ConfidenceHigh),
			})
			if err != nil {
				t.Fatalf("Propose: %v", err)
			}
			found := false
			for _, p := range st.Leverage {
				if p.Kind == negotiation.LeverageAboveMarketSkills {
					found = true
				}
			}
			if found != tt.want {
				t.Errorf("skill leverage present = %v, want %v", found, tt.want)
			}
		})
	}
}

func TestScriptsAreDeterministic(t *testing.T) {
	s := negotiation.NewStrategist(0, nil)
	in := negotiation.Input{
		JobTitle:     "Platform Engineer",
		Company:      "Acme",
		CurrentOffer: 3200,
		TargetSalary: 3800,
		Market:       summary(3400, 3600, market.ConfidenceHigh),
	}

	first, err := s.Propose(in)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	second, err := s.Propose(in)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	if first.Scripts != second.Scripts {
		t.Error("scripts differ between identical inputs")
	}
	for name, text := range map[string]string{
		"email":  first.Scripts.Email,
		"phone":  first.Scripts.Phone,
		"letter": first.Scripts.Letter,
	} {
		if !strings.Contains(text, "Platform Engineer") {
			t.Errorf("%s script missing job title", name)
		}
		if !strings.Contains(text, "3700") {
			t.Errorf("%s script missing counter-offer, got:\n%s", name, text)
		}
	}
}
