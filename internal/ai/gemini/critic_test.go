package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string

	cacheName     string
	cacheErr      error
	cachedPayload string
	lastCacheUsed string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) GenerateContentWithCache(_ context.Context, prompt, cacheName string) (string, error) {
	s.lastPrompt = prompt
	s.lastCacheUsed = cacheName
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) EnsureCVCache(_ context.Context, _, _, cvPayload string) (string, error) {
	if s.cacheErr != nil {
		return "", s.cacheErr
	}
	s.cachedPayload = cvPayload
	return s.cacheName, nil
}

func TestCritiqueReturnsImprovedText(t *testing.T) {
	stub := &stubGenerator{response: `{"improved": "Better letter.", "notes": "tightened phrasing"}`}
	critic := NewCritic(stub, zap.NewNop(), 0)

	improved, err := critic.Critique(context.Background(), "cover_letter", "Original letter.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if improved != "Better letter." {
		t.Fatalf("unexpected improved text: %q", improved)
	}

	if !strings.Contains(stub.lastPrompt, "cover_letter") {
		t.Fatalf("expected kind in prompt, got: %s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "Original letter.") {
		t.Fatalf("expected artifact text in prompt")
	}
}

func TestCritiqueStripsMarkdownFences(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"improved\": \"Clean.\"}\n```"}
	critic := NewCritic(stub, zap.NewNop(), 0)

	improved, err := critic.Critique(context.Background(), "tailored_cv", "CV text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if improved != "Clean." {
		t.Fatalf("unexpected improved text: %q", improved)
	}
}

func TestCritiqueTailoredCVUsesCVCache(t *testing.T) {
	stub := &stubGenerator{
		response:  `{"improved": "Sharper CV."}`,
		cacheName: "caches/abc",
	}
	critic := NewCritic(stub, zap.NewNop(), 0)
	critic.UseCV("default", "base cv text")

	improved, err := critic.Critique(context.Background(), "tailored_cv", "Tailored CV draft")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if improved != "Sharper CV." {
		t.Fatalf("unexpected improved text: %q", improved)
	}

	if stub.cachedPayload != "base cv text" {
		t.Errorf("cache payload = %q, want the registered cv", stub.cachedPayload)
	}
	if stub.lastCacheUsed != "caches/abc" {
		t.Errorf("cache used = %q, want caches/abc", stub.lastCacheUsed)
	}
}

func TestCritiqueCoverLetterSkipsCVCache(t *testing.T) {
	stub := &stubGenerator{
		response:  `{"improved": "Better letter."}`,
		cacheName: "caches/abc",
	}
	critic := NewCritic(stub, zap.NewNop(), 0)
	critic.UseCV("default", "base cv text")

	if _, err := critic.Critique(context.Background(), "cover_letter", "Letter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.lastCacheUsed != "" {
		t.Errorf("cover letter critique used cache %q", stub.lastCacheUsed)
	}
	if stub.cachedPayload != "" {
		t.Error("cover letter critique created a cv cache")
	}
}

func TestCritiqueFallsBackWhenCacheFails(t *testing.T) {
	stub := &stubGenerator{
		response: `{"improved": "Sharper CV."}`,
		cacheErr: errors.New("cache quota exceeded"),
	}
	critic := NewCritic(stub, zap.NewNop(), 0)
	critic.UseCV("default", "base cv text")

	improved, err := critic.Critique(context.Background(), "tailored_cv", "Tailored CV draft")
	if err != nil {
		t.Fatalf("cache failure should not fail the critique: %v", err)
	}
	if improved != "Sharper CV." {
		t.Fatalf("unexpected improved text: %q", improved)
	}
	if stub.lastCacheUsed != "" {
		t.Errorf("fallback path should not reference a cache, got %q", stub.lastCacheUsed)
	}
}

func TestCritiqueErrors(t *testing.T) {
	tests := []struct {
		name     string
		stub     *stubGenerator
		artifact string
	}{
		{
			name:     "empty artifact",
			stub:     &stubGenerator{response: `{"improved": "x"}`},
			artifact: "   ",
		},
		{
			name:     "generator failure",
			stub:     &stubGenerator{err: errors.New("quota exceeded")},
			artifact: "text",
		},
		{
			name:     "malformed response",
			stub:     &stubGenerator{response: "not json"},
			artifact: "text",
		},
		{
			name:     "missing improved field",
			stub:     &stubGenerator{response: `{"notes": "nothing"}`},
			artifact: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			critic := NewCritic(tt.stub, zap.NewNop(), 0)
			if _, err := critic.Critique(context.Background(), "cover_letter", tt.artifact); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
