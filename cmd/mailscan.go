package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mhrabcak/jobpilot/internal/mailscan"
)

var mailscanCmd = &cobra.Command{
	Use:   "mailscan",
	Short: "Classify fetched emails and advance the matching applications",
	Run: func(cmd *cobra.Command, _ []string) {
		runMailscan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(mailscanCmd)

	mailscanCmd.Flags().StringP("mail-file", "m", "", "fetched messages to scan (yaml)")

	mailscanCmd.MarkFlagRequired("mail-file")
}

func runMailscan(cmd *cobra.Command) {
	ctx := context.Background()
	log := buildLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	messages, err := loadMessages(cmd.Flag("mail-file").Value.String())
	if err != nil {
		log.Fatal("loading messages", zap.Error(err))
	}

	st, err := openStore(config)
	if err != nil {
		log.Fatal("opening state", zap.Error(err))
	}

	orch, err := buildOrchestrator(ctx, config, st, nil, log)
	if err != nil {
		log.Fatal("building pipeline", zap.Error(err))
	}

	candidates, err := orch.Candidates(ctx)
	if err != nil {
		log.Fatal("listing open applications", zap.Error(err))
	}

	lookback := time.Duration(0)
	if config.Mailscan != nil && config.Mailscan.LookbackDays > 0 {
		lookback = time.Duration(config.Mailscan.LookbackDays) * 24 * time.Hour
	}

	scanner := mailscan.NewScanner(lookback, log)
	result := scanner.Scan(messages, candidates)

	applied, anomalies := orch.HandleEmailEvents(ctx, result.Events)

	for _, u := range result.Unresolved {
		log.Warn("message needs manual review",
			zap.String("message_id", u.Message.ID),
			zap.String("subject", u.Message.Subject),
			zap.String("category", string(u.Category)),
			zap.String("reason", u.Reason),
			zap.Strings("candidates", u.Candidates),
		)
	}

	if err := st.Flush(); err != nil {
		log.Fatal("saving state", zap.Error(err))
	}

	log.Info("mailscan finished",
		zap.Int("messages", len(messages)),
		zap.Int("applied", applied),
		zap.Int("anomalies", anomalies),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.Int("ignored", result.Ignored),
	)
}

func loadMessages(path string) ([]mailscan.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	var messages []mailscan.Message
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse messages %s: %w", path, err)
	}
	return messages, nil
}
