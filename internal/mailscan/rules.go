package mailscan

import (
	"regexp"

	"github.com/mhrabcak/jobpilot/internal/lifecycle"
)

// Category is one recognized email class.
type Category string

const (
	CategoryOffer        Category = "offer"
	CategoryRejection    Category = "rejection"
	CategoryInterview    Category = "interview"
	CategoryConfirmation Category = "confirmation"
)

// EventKind maps the category to its lifecycle event.
func (c Category) EventKind() lifecycle.EventKind {
	switch c {
	case CategoryOffer:
		return lifecycle.EventEmailOffer
	case CategoryRejection:
		return lifecycle.EventEmailRejection
	case CategoryInterview:
		return lifecycle.EventEmailInterview
	case CategoryConfirmation:
		return lifecycle.EventEmailConfirmation
	}
	return ""
}

type rule struct {
	category Category
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return out
}

// Classification rules in priority order: a message matching several
// categories resolves to the first hit, since a later-stage signal is
// more informative than an earlier one. Patterns cover English and
// Slovak recruiter phrasing.
var rules = []rule{
	{
		category: CategoryOffer,
		patterns: compileAll(
			`job offer`,
			`offer of employment`,
			`pleased to (?:extend|offer)`,
			`employment contract`,
			`ponuk[au] práce`,
			`pracovn[áú] ponuk[au]`,
			`radi by sme vám ponúkli`,
			`návrh pracovnej zmluvy`,
		),
	},
	{
		category: CategoryRejection,
		patterns: compileAll(
			`unfortunately`,
			`we regret`,
			`not (?:been )?selected`,
			`(?:proceed|move forward|moving forward) with other candidates`,
			`will not be (?:progressing|moving forward)`,
			`bohužiaľ`,
			`rozhodli sme sa pokračovať s in[ýy]mi`,
			`neboli ste vybran[íý]`,
			`žiaľ`,
		),
	},
	{
		category: CategoryInterview,
		patterns: compileAll(
			`interview`,
			`schedule a (?:call|meeting)`,
			`invite you to (?:a|an|meet)`,
			`pohovor`,
			`osobn[ée] stretnutie`,
			`pozývame vás`,
			`telefonick[ýé] rozhovor`,
		),
	},
	{
		category: CategoryConfirmation,
		patterns: compileAll(
			`application (?:was |has been )?received`,
			`thank you for (?:your application|applying)`,
			`we (?:have )?received your application`,
			`successfully submitted`,
			`potvrdenie (?:prijatia )?prihlášky`,
			`prijali sme va[šs]u (?:žiadosť|prihlášku)`,
			`ďakujeme za (?:vašu )?(?:žiadosť|prihlášku|záujem)`,
		),
	},
}

// classify returns the highest-priority category matching the subject
// or body, or "" when nothing matches.
func classify(subject, body string) Category {
	for _, r := range rules {
		for _, p := range r.patterns {
			if p.MatchString(subject) || p.MatchString(body) {
				return r.category
			}
		}
	}
	return ""
}

// offerAmountRe pulls a monthly gross figure out of offer emails, e.g.
// "3 500 EUR" or "€3500". A currency marker is required on one side so
// plain numbers (dates, reference ids) never parse as amounts.
var offerAmountRe = regexp.MustCompile(`€\s*(\d{1,2}[ \x{00a0}]?\d{3})|(\d{1,2}[ \x{00a0}]?\d{3})\s*(?:€|EUR|eur)\b`)

// titleRes extract a job title from the subject, then the body. Ordered
// by specificity.
var titleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:application for|applying for|regarding|position of|for the position)[: ]+["“]?([^"”,\n.]{3,60})`),
	regexp.MustCompile(`(?i)(?:na pozíciu|pozícia|o pozíciu)[: ]+["“]?([^"”,\n.]{3,60})`),
	regexp.MustCompile(`(?i)^(?:re|fwd?)?:?\s*([^-–|\n]{3,60})\s*[-–|]`),
}
