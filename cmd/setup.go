package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mhrabcak/jobpilot/internal/ai/gemini"
	"github.com/mhrabcak/jobpilot/internal/artifacts"
	"github.com/mhrabcak/jobpilot/internal/job"
	"github.com/mhrabcak/jobpilot/internal/logger"
	"github.com/mhrabcak/jobpilot/internal/matching"
	"github.com/mhrabcak/jobpilot/internal/orchestrator"
	"github.com/mhrabcak/jobpilot/internal/secrets"
	"github.com/mhrabcak/jobpilot/internal/store"
)

func buildLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating a logger: %s\n", err)
		os.Exit(1)
	}
	return l
}

func openStore(config *Config) (*store.File, error) {
	path := strings.TrimSpace(config.StateFile)
	if path == "" {
		path = viper.GetString("state-file")
	}
	return store.OpenFile(path)
}

func loadProfile(config *Config) (*job.Profile, error) {
	path := strings.TrimSpace(config.ProfileFile)
	if path == "" {
		return nil, errors.New("profile file is not configured (set profile-file in the config)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile job.Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if profile.ID == "" {
		profile.ID = "default"
	}
	return &profile, nil
}

func loadPostings(path string) (*job.Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read postings: %w", err)
	}

	// The browser extension exports json documents; hand-curated lists
	// are yaml.
	if strings.HasSuffix(path, ".json") {
		return job.FeedFromExport(data)
	}

	var raw []*job.Posting
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse postings %s: %w", path, err)
	}

	// The scraping collaborator may repeat postings across exports.
	feed := &job.Feed{}
	for _, p := range raw {
		if p.ID == "" {
			p.ID = p.Key()
		}
		feed.Add(p)
	}
	return feed, nil
}

// buildGenerator assembles the artifact generator. profile may be nil
// for commands that never draft; it only feeds the critic's CV cache.
func buildGenerator(ctx context.Context, config *Config, profile *job.Profile, log *zap.Logger) (*artifacts.Generator, error) {
	var opts []artifacts.Option

	if config.AI != nil && config.AI.Enabled {
		if config.AI.Gemini == nil {
			return nil, errors.New("gemini configuration is required when ai critique is enabled")
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: config.AI.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model)
		if err != nil {
			return nil, err
		}

		criticLogger := logger.WithCommonFields(log, "gemini", generator.Model())
		critic := gemini.NewCritic(generator, criticLogger, config.AI.Gemini.MaxLogLength)
		if profile != nil && strings.TrimSpace(profile.CVText) != "" {
			critic.UseCV(profile.ID, profile.CVText)
		}
		opts = append(opts, artifacts.WithCritic(critic))
	}

	return artifacts.NewGenerator(log, opts...), nil
}

func buildOrchestrator(ctx context.Context, config *Config, st store.Store, profile *job.Profile, log *zap.Logger) (*orchestrator.Orchestrator, error) {
	taxonomy, err := matching.DefaultTaxonomy()
	if err != nil {
		return nil, fmt.Errorf("loading skill taxonomy: %w", err)
	}
	engine := matching.NewEngine(taxonomy, matching.DefaultWeights, log)

	generator, err := buildGenerator(ctx, config, profile, log)
	if err != nil {
		return nil, err
	}

	var opts []orchestrator.Option
	if config.Match != nil && config.Match.Threshold > 0 {
		opts = append(opts, orchestrator.WithMatchThreshold(config.Match.Threshold))
	}

	return orchestrator.New(&orchestrator.Deps{
		Store:     st,
		Matcher:   engine,
		Generator: generator,
		Logger:    log,
	}, opts...)
}
