package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/ai"
	"github.com/mhrabcak/jobpilot/internal/util"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error)
	EnsureCVCache(ctx context.Context, profileID, displayName, cvPayload string) (string, error)
}

// Critic reviews generated artifacts through Gemini. It satisfies
// ai.Critic.
type Critic struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int

	cvProfileID string
	cvPayload   string
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewCritic(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Critic {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Critic{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// UseCV registers the profile's base CV so tailored-CV critiques reuse
// it as cached context instead of resending it with every prompt.
func (c *Critic) UseCV(profileID, cvText string) {
	c.cvProfileID = strings.TrimSpace(profileID)
	c.cvPayload = strings.TrimSpace(cvText)
}

// Critique sends the artifact for review and returns the improved text.
func (c *Critic) Critique(ctx context.Context, kind, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("artifact text is required")
	}

	prompt := buildPrompt(kind, text)

	c.logger.Debug("gemini critique request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generate(ctx, kind, prompt)
	if err != nil {
		return "", err
	}

	c.logger.Debug("gemini critique response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, c.maxLogLen)),
	)

	improved, notes, err := parseResponse(raw)
	if err != nil {
		return "", err
	}
	if notes != "" {
		c.logger.Debug("critique notes", zap.String("kind", kind), zap.String("notes", notes))
	}
	return improved, nil
}

// generate routes tailored-CV critiques through the CV content cache
// when a base CV was registered. Cache failures fall back to the plain
// path so critique availability never depends on the cache API.
func (c *Critic) generate(ctx context.Context, kind, prompt string) (string, error) {
	if kind != ai.KindTailoredCV || c.cvProfileID == "" || c.cvPayload == "" {
		return c.generator.GenerateContent(ctx, prompt)
	}

	cacheName, err := c.generator.EnsureCVCache(ctx, c.cvProfileID, "cv-"+c.cvProfileID, c.cvPayload)
	if err != nil {
		c.logger.Warn("cv cache unavailable, sending prompt without cached context", zap.Error(err))
		return c.generator.GenerateContent(ctx, prompt)
	}

	return c.generator.GenerateContentWithCache(ctx, prompt, cacheName)
}

func buildPrompt(kind, text string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Improve this {{KIND}}:\n{{TEXT}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{KIND}}", kind)
	prompt = strings.ReplaceAll(prompt, "{{TEXT}}", text)
	return prompt
}

func parseResponse(raw string) (improved, notes string, err error) {
	cleaned := extractJSON(strings.TrimSpace(raw))

	var data struct {
		Improved string `json:"improved"`
		Notes    string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return "", "", fmt.Errorf("parse gemini response: %w", err)
	}

	improved = strings.TrimSpace(data.Improved)
	if improved == "" {
		return "", "", fmt.Errorf("gemini response has no improved text")
	}
	return improved, strings.TrimSpace(data.Notes), nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
