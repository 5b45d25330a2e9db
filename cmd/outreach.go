package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mhrabcak/jobpilot/internal/outreach"
	"github.com/mhrabcak/jobpilot/internal/util"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Send recruiter messages for tracked applications, within the daily budget",
	Run: func(cmd *cobra.Command, _ []string) {
		runOutreach(cmd)
	},
}

func init() {
	rootCmd.AddCommand(outreachCmd)

	outreachCmd.Flags().StringP("targets-file", "t", "", "recruiter targets to contact (yaml)")
	outreachCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before each send")

	outreachCmd.MarkFlagRequired("targets-file")
}

// outreachTarget is one row of the targets file.
type outreachTarget struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Company       string `yaml:"company"`
	Role          string `yaml:"role"`
	ApplicationID string `yaml:"application_id"`
}

// promptConfirmer asks before every network-visible send.
type promptConfirmer struct{}

func (promptConfirmer) Confirm(action *outreach.Action) (bool, error) {
	fmt.Printf("\n--- message to %s (%s) ---\n%s\n---\n", action.TargetID, action.TemplateID, action.Message)

	prompt := promptui.Select{
		Label: "Send this message?",
		Items: []string{PromptYes, PromptNo},
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return choice == PromptYes, nil
}

// stdoutSender stands in for the external messaging collaborator: it
// prints the message and records it as sent. A real sender is wired in
// the same place.
type stdoutSender struct{}

func (stdoutSender) Send(_ context.Context, action *outreach.Action) error {
	fmt.Printf("sending to %s: %s\n", action.TargetID, util.TruncateForLog(action.Message, 80))
	return nil
}

func runOutreach(cmd *cobra.Command) {
	ctx := context.Background()
	log := buildLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	targets, err := loadTargets(cmd.Flag("targets-file").Value.String())
	if err != nil {
		log.Fatal("loading targets", zap.Error(err))
	}
	if len(targets) == 0 {
		log.Info("exiting", zap.String("reason", "no targets to contact"))
		return
	}

	st, err := openStore(config)
	if err != nil {
		log.Fatal("opening state", zap.Error(err))
	}

	orch, err := buildOrchestrator(ctx, config, st, nil, log)
	if err != nil {
		log.Fatal("building pipeline", zap.Error(err))
	}

	budget := outreach.DefaultBudget
	minSpacing := time.Duration(0)
	maxSpacing := time.Duration(0)
	requireConfirmation := true
	if config.Outreach != nil {
		if config.Outreach.DailyBudget > 0 {
			budget = config.Outreach.DailyBudget
		}
		minSpacing = config.Outreach.MinSpacing
		maxSpacing = config.Outreach.MaxSpacing
		requireConfirmation = config.Outreach.RequireConfirmation
	}
	if cmd.Flag("auto-approve").Value.String() == "true" {
		requireConfirmation = false
	}

	deps := &outreach.Deps{
		Window: outreach.NewWindow(budget, outreach.DefaultSpan),
		Sender: stdoutSender{},
		Withdrawn: func(appID string) bool {
			return orch.IsWithdrawn(ctx, appID)
		},
		Logger: log,
	}
	if requireConfirmation {
		deps.Confirmer = promptConfirmer{}
	}

	var opts []outreach.Option
	if minSpacing > 0 || maxSpacing > 0 {
		opts = append(opts, outreach.WithSpacing(minSpacing, maxSpacing))
	}

	throttler, err := outreach.NewThrottler(deps, opts...)
	if err != nil {
		log.Fatal("building throttler", zap.Error(err))
	}

	composer := outreach.NewComposer(nil)
	queue := make([]*outreach.Action, 0, len(targets))
	now := time.Now()
	for _, t := range targets {
		queue = append(queue, composer.Compose(outreach.Target{
			ID:      t.ID,
			Name:    t.Name,
			Company: t.Company,
			Role:    t.Role,
		}, t.ApplicationID, now))
	}

	report, err := throttler.Process(ctx, queue)
	if err != nil {
		log.Fatal("processing outreach queue", zap.Error(err))
	}

	for _, action := range queue {
		if err := st.AppendOutreach(ctx, action); err != nil {
			log.Warn("recording outreach action", zap.String("action_id", action.ID), zap.Error(err))
		}
	}
	if err := st.Flush(); err != nil {
		log.Fatal("saving state", zap.Error(err))
	}

	log.Info("outreach finished",
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("rate_limited", report.RateLimited),
		zap.Int("withdrawn", report.Withdrawn),
		zap.Int("declined", report.Declined),
	)
}

func loadTargets(path string) ([]outreachTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	var targets []outreachTarget
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("parse targets %s: %w", path, err)
	}
	return targets, nil
}
