// Package mailscan classifies inbound email into lifecycle events and
// attaches each event to the best-matching tracked application.
// Classification is keyword based; matching is fuzzy over job title and
// company, and ambiguous matches are surfaced unresolved, never
// guessed.
package mailscan

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/lifecycle"
)

// Message is one raw inbound email as delivered by the mail-fetch
// collaborator.
type Message struct {
	ID         string    `json:"id" yaml:"id"`
	Subject    string    `json:"subject" yaml:"subject"`
	From       string    `json:"from" yaml:"from"`
	Body       string    `json:"body" yaml:"body"`
	ReceivedAt time.Time `json:"received_at" yaml:"received_at"`
}

// Candidate is one tracked application the scanner may attach events
// to.
type Candidate struct {
	ApplicationID string
	JobTitle      string
	Company       string
}

// Event is a classified message resolved to a single application.
type Event struct {
	Message       *Message
	Category      Category
	Kind          lifecycle.EventKind
	ApplicationID string
	// OfferAmount is set for offer emails carrying a parseable figure.
	OfferAmount float64
}

// Unresolved is a classified message the scanner could not attach
// confidently. Candidates lists the application ids that tied.
type Unresolved struct {
	Message    *Message
	Category   Category
	Reason     string
	Candidates []string
}

// ScanResult is one batch outcome. Unclassifiable messages are counted,
// not errored.
type ScanResult struct {
	Events     []Event
	Unresolved []Unresolved
	Ignored    int
}

const (
	// DefaultLookback bounds how old a message may be and still produce
	// an event.
	DefaultLookback = 14 * 24 * time.Hour
	// ambiguityMargin is the minimum fuzzy-score lead the best candidate
	// needs over the runner-up.
	ambiguityMargin = 20
)

// Free-mail domains never identify an employer.
var freeMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"outlook.com": true,
	"hotmail.com": true,
	"icloud.com":  true,
	"azet.sk":     true,
	"zoznam.sk":   true,
	"centrum.sk":  true,
}

// Scanner processes message batches.
type Scanner struct {
	lookback time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewScanner(lookback time.Duration, logger *zap.Logger) *Scanner {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{lookback: lookback, logger: logger, now: time.Now}
}

// Scan classifies every message in the batch and resolves each
// classified one against the candidates. One bad message never aborts
// the batch.
func (s *Scanner) Scan(messages []Message, candidates []Candidate) *ScanResult {
	result := &ScanResult{}
	cutoff := s.now().Add(-s.lookback)

	for i := range messages {
		msg := &messages[i]

		if msg.ReceivedAt.Before(cutoff) {
			result.Ignored++
			continue
		}

		category := classify(msg.Subject, msg.Body)
		if category == "" {
			result.Ignored++
			s.logger.Debug("message not classified", zap.String("message_id", msg.ID), zap.String("subject", msg.Subject))
			continue
		}

		appID, tied := s.resolve(msg, candidates)
		if appID == "" {
			reason := "no matching application"
			if len(tied) > 0 {
				reason = fmt.Sprintf("ambiguous between %d applications", len(tied))
			}
			result.Unresolved = append(result.Unresolved, Unresolved{
				Message:    msg,
				Category:   category,
				Reason:     reason,
				Candidates: tied,
			})
			s.logger.Info("classified message left unresolved",
				zap.String("message_id", msg.ID),
				zap.String("category", string(category)),
				zap.String("reason", reason),
			)
			continue
		}

		event := Event{
			Message:       msg,
			Category:      category,
			Kind:          category.EventKind(),
			ApplicationID: appID,
		}
		if category == CategoryOffer {
			event.OfferAmount = parseOfferAmount(msg.Subject + "\n" + msg.Body)
		}
		result.Events = append(result.Events, event)
	}

	s.logger.Info("mail batch scanned",
		zap.Int("messages", len(messages)),
		zap.Int("events", len(result.Events)),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.Int("ignored", result.Ignored),
	)
	return result
}

// resolve scores candidates on company and title signals extracted from
// the message. It returns the winner, or ("", tied ids) when the lead
// is within the ambiguity margin.
func (s *Scanner) resolve(msg *Message, candidates []Candidate) (string, []string) {
	if len(candidates) == 0 {
		return "", nil
	}

	company := companyFromSender(msg.From)
	title := extractTitle(msg.Subject, msg.Body)
	if company == "" && title == "" {
		return "", nil
	}

	scores := make([]int, len(candidates))
	companies := make([]string, len(candidates))
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		companies[i] = strings.ToLower(c.Company)
		titles[i] = strings.ToLower(c.JobTitle)
	}

	if company != "" {
		for _, m := range fuzzy.Find(company, companies) {
			scores[m.Index] += 2 * (m.Score + 1)
		}
	}
	if title != "" {
		for _, m := range fuzzy.Find(title, titles) {
			scores[m.Index] += m.Score + 1
		}
	}

	best, second := -1, -1
	for i, score := range scores {
		if score == 0 {
			continue
		}
		switch {
		case best == -1 || score > scores[best]:
			second = best
			best = i
		case second == -1 || score > scores[second]:
			second = i
		}
	}

	if best == -1 {
		return "", nil
	}
	if second != -1 && scores[best]-scores[second] < ambiguityMargin {
		return "", []string{candidates[best].ApplicationID, candidates[second].ApplicationID}
	}
	return candidates[best].ApplicationID, nil
}

// companyFromSender derives an employer hint from the sender domain.
// Free-mail domains yield nothing.
func companyFromSender(from string) string {
	at := strings.LastIndex(from, "@")
	if at == -1 {
		return ""
	}
	domain := strings.ToLower(strings.Trim(from[at+1:], "> "))
	if freeMailDomains[domain] {
		return ""
	}
	// careers.acme.sk -> acme
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

func extractTitle(subject, body string) string {
	for _, re := range titleRes {
		if m := re.FindStringSubmatch(subject); m != nil {
			return strings.ToLower(strings.TrimSpace(m[1]))
		}
	}
	for _, re := range titleRes[:2] {
		if m := re.FindStringSubmatch(body); m != nil {
			return strings.ToLower(strings.TrimSpace(m[1]))
		}
	}
	return ""
}

func parseOfferAmount(text string) float64 {
	m := offerAmountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	raw = strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, raw)
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return amount
}
