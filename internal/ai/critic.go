// Package ai defines the optional review layer for generated
// artifacts. Implementations live in subpackages; the pipeline works
// without one.
package ai

import "context"

// Artifact kinds passed to Critique.
const (
	KindCoverLetter = "cover_letter"
	KindTailoredCV  = "tailored_cv"
)

// Critic reviews a rendered artifact and returns an improved version.
// kind names the artifact type (cover_letter, tailored_cv).
type Critic interface {
	Critique(ctx context.Context, kind, text string) (string, error)
}
