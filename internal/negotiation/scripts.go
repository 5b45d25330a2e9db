package negotiation

import (
	"fmt"
	"strings"
)

// Scripts holds ready-to-use negotiation texts for the three channels.
type Scripts struct {
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Letter string `json:"letter"`
}

// renderScripts builds the channel texts from the computed strategy.
// Output depends only on the input and the strategy, nothing else.
func renderScripts(in Input, st *Strategy) Scripts {
	role := in.JobTitle
	if role == "" {
		role = "the role"
	}
	company := in.Company
	if company == "" {
		company = "your company"
	}

	reasons := leverageSentences(st.Leverage)

	email := fmt.Sprintf(
		"Subject: %s offer — compensation discussion\n\n"+
			"Thank you for the offer for %s at %s. I am excited about the team and the work ahead.\n\n"+
			"Based on my research of the current market, I would like to discuss the base salary. "+
			"I believe €%.0f would better reflect the value I bring%s\n\n"+
			"I am confident we can find a number that works for both sides. "+
			"Would you be open to a short call this week?\n",
		role, role, company, st.CounterOffer, reasons,
	)

	phone := fmt.Sprintf(
		"Thank you again for the offer for %s. Before I accept, I would like to talk about the base salary. "+
			"Given the current market, I was expecting something closer to €%.0f%s "+
			"Is there flexibility on that number?",
		role, st.CounterOffer, reasons,
	)

	letter := fmt.Sprintf(
		"Dear %s team,\n\n"+
			"I appreciate the offer for %s and the confidence it expresses. "+
			"After reviewing comparable positions in the region, I would like to propose a base salary of €%.0f%s\n\n"+
			"I remain very interested in joining and look forward to your response.\n",
		company, role, st.CounterOffer, reasons,
	)

	return Scripts{Email: email, Phone: phone, Letter: letter}
}

func leverageSentences(points []LeveragePoint) string {
	if len(points) == 0 {
		return "."
	}
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, p.Reason)
	}
	return ", considering that " + strings.Join(parts, ", and ") + "."
}
