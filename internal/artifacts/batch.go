package artifacts

import (
	"context"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/matching"
)

// BatchItem pairs a posting with its match result for batch generation.
type BatchItem struct {
	Posting *job.Posting
	Match   *matching.Result
}

// Bundle holds both artifacts for one posting.
type Bundle struct {
	CoverLetter *Artifact
	TailoredCV  *Artifact
}

// BatchResult carries per-job outcomes. A job appears in exactly one of
// the two maps.
type BatchResult struct {
	Bundles map[string]*Bundle
	Errors  map[string]error
}

// GenerateBatch renders artifacts for every item. One failing item
// never aborts the batch; its error is collected and the rest proceed.
func (g *Generator) GenerateBatch(ctx context.Context, profile *job.Profile, items []BatchItem) *BatchResult {
	result := &BatchResult{
		Bundles: make(map[string]*Bundle, len(items)),
		Errors:  make(map[string]error),
	}

	for _, item := range items {
		letter, err := g.CoverLetter(ctx, item.Posting, profile, item.Match)
		if err != nil {
			result.Errors[item.Posting.ID] = err
			g.logger.Warn("batch item failed", zap.String("job_id", item.Posting.ID), zap.Error(err))
			continue
		}
		cv, err := g.TailoredCV(ctx, item.Posting, profile, item.Match)
		if err != nil {
			result.Errors[item.Posting.ID] = err
			g.logger.Warn("batch item failed", zap.String("job_id", item.Posting.ID), zap.Error(err))
			continue
		}
		result.Bundles[item.Posting.ID] = &Bundle{CoverLetter: letter, TailoredCV: cv}
	}

	g.logger.Info("artifact batch finished",
		zap.Int("generated", len(result.Bundles)),
		zap.Int("failed", len(result.Errors)),
	)
	return result
}
