package negotiation_test

import (
	"testing"

	"github.com/mhrabcak/jobpilot/internal/negotiation"
)

func TestSimulateEmployerAcceptsReasonableAsk(t *testing.T) {
	st := &negotiation.Strategy{CounterOffer: 3700}

	// Ask is 200 over the initial offer, well under 15% of the maximum.
	rounds := st.Simulate(3500, 4200)
	if len(rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(rounds))
	}

	first := rounds[0]
	if first.Response != negotiation.RespondCounter || first.CandidateAsk != 3700 {
		t.Errorf("round 1 = %+v, want counter at 3700", first)
	}

	second := rounds[1]
	if second.Response != negotiation.RespondAccept {
		t.Errorf("round 2 response = %s, want accept", second.Response)
	}
	if second.EmployerOffer != 3700 {
		t.Errorf("round 2 employer offer = %.0f, want 3700", second.EmployerOffer)
	}
}

func TestSimulateBigJumpDrawsMiddleGroundCounter(t *testing.T) {
	st := &negotiation.Strategy{CounterOffer: 4400}

	// Ask is 900 over the initial offer, more than 15% of the maximum.
	rounds := st.Simulate(3500, 4500)
	if len(rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(rounds))
	}

	second := rounds[1]
	if second.Response != negotiation.RespondEvaluate {
		t.Errorf("round 2 response = %s, want evaluate", second.Response)
	}
	if second.EmployerOffer != 3950 {
		t.Errorf("round 2 employer offer = %.0f, want midpoint 3950", second.EmployerOffer)
	}
}

func TestSimulateAskAboveEmployerMaximum(t *testing.T) {
	st := &negotiation.Strategy{CounterOffer: 4400}

	rounds := st.Simulate(3500, 4000)
	if len(rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(rounds))
	}

	second := rounds[1]
	if second.Response != negotiation.RespondEvaluate {
		t.Errorf("round 2 response = %s, want evaluate", second.Response)
	}
	if second.EmployerOffer != 4000 {
		t.Errorf("round 2 employer offer = %.0f, want the employer maximum", second.EmployerOffer)
	}
}
