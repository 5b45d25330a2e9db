package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/scheduler"
	"github.com/mhrabcak/jobpilot/internal/screening"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match scraped postings against the profile and draft application artifacts",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("postings-file", "p", "", "postings export from the scraper (yaml)")
	runCmd.Flags().Bool("daemon", false, "keep running and repeat the pipeline on a schedule")
	runCmd.Flags().String("schedule", "@every 24h", "cron spec for daemon mode")
	runCmd.Flags().Bool("do-not-exclude-tracked", false, "rescreen postings that already have a tracked application")

	runCmd.MarkFlagRequired("postings-file")
}

// run is the main pipeline command.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	log := buildLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting jobpilot", zap.String("version", version))

	pretty, _ := json.MarshalIndent(config, "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	postingsFile := cmd.Flag("postings-file").Value.String()
	ignoreTracked := cmd.Flag("do-not-exclude-tracked").Value.String() == "true"

	task := func(ctx context.Context) error {
		return pipeline(ctx, config, postingsFile, ignoreTracked, log)
	}

	if cmd.Flag("daemon").Value.String() != "true" {
		if err := task(ctx); err != nil {
			log.Fatal("pipeline failed", zap.Error(err))
		}
		return
	}

	spec := cmd.Flag("schedule").Value.String()
	sched := scheduler.New(spec, task, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatal("starting scheduler", zap.Error(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	cancel()
	sched.Stop()
}

// pipeline runs one screen + intake + draft pass and persists the
// results.
func pipeline(ctx context.Context, config *Config, postingsFile string, ignoreTracked bool, log *zap.Logger) error {
	profile, err := loadProfile(config)
	if err != nil {
		return err
	}

	feed, err := loadPostings(postingsFile)
	if err != nil {
		return err
	}
	log.Info("postings loaded", zap.Int("count", feed.Len()))

	st, err := openStore(config)
	if err != nil {
		return err
	}

	if err := st.SaveProfile(ctx, profile); err != nil {
		return err
	}

	screenCfg := &screening.Config{}
	if config.Screening != nil {
		screenCfg.Companies = config.Screening.Companies
		screenCfg.ExcludeFile = config.Screening.ExcludeFile
	}
	feed, err = screening.Run(ctx, screenCfg, screening.Deps{Store: st, Logger: log},
		screening.DefaultSteps(ignoreTracked), feed)
	if err != nil {
		return fmt.Errorf("screening postings: %w", err)
	}

	orch, err := buildOrchestrator(ctx, config, st, profile, log)
	if err != nil {
		return err
	}

	report, err := orch.Intake(ctx, profile, feed.Items)
	if err != nil {
		return err
	}
	log.Info("intake finished",
		zap.Int("tracked", len(report.Tracked)),
		zap.Int("below_cutoff", report.BelowCutoff),
		zap.Int("already_seen", report.AlreadySeen),
		zap.Int("failed", len(report.Errors)),
	)
	for id, itemErr := range report.Errors {
		log.Warn("posting skipped", zap.String("job_id", id), zap.Error(itemErr))
	}

	failures, err := orch.Draft(ctx, profile)
	if err != nil {
		return err
	}
	for id, itemErr := range failures {
		log.Warn("draft failed", zap.String("application_id", id), zap.Error(itemErr))
	}

	if err := st.Flush(); err != nil {
		return err
	}

	log.Info("pipeline pass complete", zap.Int("draft_failures", len(failures)))
	return nil
}
