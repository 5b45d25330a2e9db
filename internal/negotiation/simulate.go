package negotiation

import "fmt"

// RoundResponse is the candidate's move in a simulated round.
type RoundResponse string

const (
	RespondCounter  RoundResponse = "counter"
	RespondEvaluate RoundResponse = "evaluate"
	RespondAccept   RoundResponse = "accept"
)

// Round is one exchange in a simulated negotiation.
type Round struct {
	Number        int           `json:"round"`
	EmployerOffer float64       `json:"employer_offer"`
	Response      RoundResponse `json:"response"`
	CandidateAsk  float64       `json:"candidate_ask,omitempty"`
	Analysis      string        `json:"analysis"`
}

// bigJumpRatio is the share of the employer maximum above which an ask
// is treated as a big jump the employer will counter instead of accept.
const bigJumpRatio = 0.15

// Simulate plays out the likely rounds for the strategy's counter-offer
// against an assumed employer maximum. The outcome depends only on the
// three numbers involved.
func (st *Strategy) Simulate(initialOffer, employerMax float64) []Round {
	counter := st.CounterOffer

	rounds := []Round{{
		Number:        1,
		EmployerOffer: initialOffer,
		Response:      RespondCounter,
		CandidateAsk:  counter,
		Analysis:      "initial counter-offer submitted",
	}}

	if counter > employerMax {
		rounds = append(rounds, Round{
			Number:        2,
			EmployerOffer: employerMax,
			Response:      RespondEvaluate,
			Analysis:      fmt.Sprintf("employer countered at their maximum: €%.0f", employerMax),
		})
		return rounds
	}

	if counter-initialOffer > employerMax*bigJumpRatio {
		middle := (initialOffer + counter) / 2
		rounds = append(rounds, Round{
			Number:        2,
			EmployerOffer: middle,
			Response:      RespondEvaluate,
			Analysis:      fmt.Sprintf("employer countered at middle ground: €%.0f", middle),
		})
		return rounds
	}

	rounds = append(rounds, Round{
		Number:        2,
		EmployerOffer: counter,
		Response:      RespondAccept,
		Analysis:      "employer accepted the counter-offer",
	})
	return rounds
}
