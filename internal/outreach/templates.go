package outreach

import (
	"strings"
	"sync"
	"time"
)

// Template is one reusable recruiter message.
type Template struct {
	ID   string
	Body string
}

// Built-in recruiter message variants. Rotation spreads them across
// targets so consecutive contacts never read identically.
var defaultTemplates = []Template{
	{
		ID: "intro-direct",
		Body: "Hi {{NAME}}, I noticed the {{ROLE}} opening at {{COMPANY}} and my background fits it closely. " +
			"I would appreciate a short chat about the role.",
	},
	{
		ID: "intro-referral",
		Body: "Hello {{NAME}}, I am reaching out about the {{ROLE}} position at {{COMPANY}}. " +
			"I have relevant hands-on experience and can share details or a CV if useful.",
	},
	{
		ID: "intro-followup",
		Body: "Hi {{NAME}}, following up on the {{ROLE}} role at {{COMPANY}} — I recently applied and " +
			"wanted to connect directly in case you are the right person to speak with.",
	},
}

// Target identifies one recruiter contact.
type Target struct {
	ID      string
	Name    string
	Company string
	Role    string
}

// Composer builds queued actions from the template set, rotating
// through variants deterministically.
type Composer struct {
	mu        sync.Mutex
	rotation  int
	templates []Template
}

func NewComposer(templates []Template) *Composer {
	if len(templates) == 0 {
		templates = defaultTemplates
	}
	return &Composer{templates: templates}
}

// Compose builds the next action for the target using the next template
// in rotation.
func (c *Composer) Compose(target Target, applicationID string, scheduledAt time.Time) *Action {
	c.mu.Lock()
	tpl := c.templates[c.rotation%len(c.templates)]
	c.rotation++
	c.mu.Unlock()

	body := tpl.Body
	body = strings.ReplaceAll(body, "{{NAME}}", fallback(target.Name, "there"))
	body = strings.ReplaceAll(body, "{{ROLE}}", fallback(target.Role, "open role"))
	body = strings.ReplaceAll(body, "{{COMPANY}}", fallback(target.Company, "your company"))

	return NewAction(target.ID, applicationID, tpl.ID, body, scheduledAt)
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
