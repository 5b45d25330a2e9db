package artifacts

import (
	"fmt"
	"regexp"
	"strings"
)

// Cover letter opening and closing variants. Selection rotates through
// these in order, never randomly.
var coverOpenings = []string{
	"I am writing to express my strong interest in the {{ROLE}} position at {{COMPANY}}.",
	"Your opening for a {{ROLE}} at {{COMPANY}} immediately caught my attention.",
	"I would like to apply for the {{ROLE}} role at {{COMPANY}}.",
}

var coverClosings = []string{
	"I would welcome the chance to discuss how I can contribute to {{COMPANY}}, and I am available for an interview at your convenience.",
	"Thank you for considering my application; I look forward to the opportunity to speak with your team.",
	"I am happy to provide further details and would be glad to meet in person or over a call.",
}

const coverLetterTemplate = `Dear {{COMPANY}} hiring team,

{{OPENING}}

My background aligns closely with what you are looking for, particularly in {{SKILLS}}. I have applied these skills in production settings and I am confident they would transfer directly to this role.

{{CLOSING}}

Kind regards,
{{NAME}}
`

const tailoredCVTemplate = `{{NAME}}

SUMMARY
{{YEARS}} years of experience, applying for {{ROLE}} at {{COMPANY}}.
Key strengths for this role: {{SKILLS}}.

{{CV_BODY}}
`

// Placeholders that must resolve to non-empty values. Everything else
// may legitimately render empty (a posting without a location, a match
// without overlap).
var (
	coverLetterRequired = []string{"COMPANY", "ROLE", "NAME"}
	tailoredCVRequired  = []string{"COMPANY", "ROLE", "NAME", "CV_BODY"}
)

var placeholderRe = regexp.MustCompile(`\{\{([A-Z_]+)\}\}`)

// render substitutes vars into the template. It fails on a required
// placeholder with an empty value and on any placeholder left
// unsubstituted after expansion.
func render(kind Kind, template string, vars map[string]string, required []string) (string, error) {
	for _, name := range required {
		if strings.TrimSpace(vars[name]) == "" {
			return "", &RenderError{Kind: kind, Placeholder: name}
		}
	}

	text := template
	// Openings and closings carry placeholders of their own, so expand
	// until the text stabilizes.
	for range [3]struct{}{} {
		for name, value := range vars {
			text = strings.ReplaceAll(text, fmt.Sprintf("{{%s}}", name), value)
		}
	}

	if m := placeholderRe.FindStringSubmatch(text); m != nil {
		return "", &RenderError{Kind: kind, Placeholder: m[1]}
	}

	return strings.TrimSpace(text) + "\n", nil
}
