package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mhrabcak/jobpilot/internal/market"
	"github.com/mhrabcak/jobpilot/internal/matching"
	"github.com/mhrabcak/jobpilot/internal/negotiation"
	"github.com/mhrabcak/jobpilot/internal/store"
)

var negotiateCmd = &cobra.Command{
	Use:   "negotiate <application-id>",
	Short: "Compute a counter-offer and talking points for a received offer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runNegotiate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(negotiateCmd)

	negotiateCmd.Flags().Float64("offer", 0, "offered monthly gross (default: the recorded initial offer)")
	negotiateCmd.Flags().Float64("competing", 0, "competing offer amount, if any")
	negotiateCmd.Flags().Float64("years", 0, "years of relevant experience (default: summed from the profile)")
	negotiateCmd.Flags().Float64("employer-max", 0, "assumed employer maximum; when set, likely negotiation rounds are printed")
	negotiateCmd.Flags().StringP("samples-file", "s", "", "additional market samples to ingest before aggregation (yaml)")
}

func runNegotiate(cmd *cobra.Command, appID string) {
	ctx := context.Background()
	log := buildLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	st, err := openStore(config)
	if err != nil {
		log.Fatal("opening state", zap.Error(err))
	}

	app, err := st.Application(ctx, appID)
	if err != nil {
		log.Fatal("loading application", zap.String("application_id", appID), zap.Error(err))
	}
	posting, err := st.Posting(ctx, app.JobID)
	if err != nil {
		log.Fatal("loading posting", zap.String("job_id", app.JobID), zap.Error(err))
	}
	profile, err := loadProfile(config)
	if err != nil {
		log.Fatal("loading profile", zap.Error(err))
	}

	if path := cmd.Flag("samples-file").Value.String(); path != "" {
		ingested, err := ingestSamples(ctx, st, path)
		if err != nil {
			log.Fatal("ingesting market samples", zap.Error(err))
		}
		log.Info("market samples ingested", zap.Int("count", ingested))
	}

	roleFamily := posting.Title
	location := posting.Location
	maxAge := time.Duration(0)
	if config.Market != nil {
		if config.Market.RoleFamily != "" {
			roleFamily = config.Market.RoleFamily
		}
		if config.Market.Location != "" {
			location = config.Market.Location
		}
		if config.Market.MaxSampleAgeDays > 0 {
			maxAge = time.Duration(config.Market.MaxSampleAgeDays) * 24 * time.Hour
		}
	}

	samples, err := st.MarketSamples(ctx, roleFamily)
	if err != nil {
		log.Fatal("loading market samples", zap.Error(err))
	}
	summary := market.NewAggregator(0, maxAge, log).Aggregate(roleFamily, location, samples)

	offer, _ := cmd.Flags().GetFloat64("offer")
	if offer == 0 {
		offer = app.Offer.Initial
	}
	if offer == 0 {
		log.Fatal("no offer amount", zap.String("application_id", appID),
			zap.String("hint", "pass --offer or record an offer email first"))
	}

	competing, _ := cmd.Flags().GetFloat64("competing")
	years, _ := cmd.Flags().GetFloat64("years")
	if years == 0 {
		for _, e := range profile.Experience {
			years += e.Years
		}
	}

	skillRatio := 0.0
	if taxonomy, err := matching.DefaultTaxonomy(); err != nil {
		log.Warn("loading skill taxonomy", zap.Error(err))
	} else if result, err := matching.NewEngine(taxonomy, matching.DefaultWeights, log).Match(posting, profile); err != nil {
		log.Warn("skill coverage unavailable", zap.Error(err))
	} else {
		skillRatio = result.MatchedRatio()
	}

	strategist := negotiation.NewStrategist(0, log)
	strategy, err := strategist.Propose(negotiation.Input{
		JobTitle:          posting.Title,
		Company:           posting.Company,
		CurrentOffer:      offer,
		TargetSalary:      profile.TargetSalary,
		CompetingOffer:    competing,
		MatchedSkillRatio: skillRatio,
		YearsExperience:   years,
		Market:            summary,
	})
	if err != nil {
		log.Fatal("computing strategy", zap.Error(err))
	}

	out, err := json.MarshalIndent(strategy, "", "  ")
	if err != nil {
		log.Fatal("encoding strategy", zap.Error(err))
	}
	fmt.Println(string(out))

	if employerMax, _ := cmd.Flags().GetFloat64("employer-max"); employerMax > 0 {
		rounds, err := json.MarshalIndent(strategy.Simulate(offer, employerMax), "", "  ")
		if err != nil {
			log.Fatal("encoding simulation", zap.Error(err))
		}
		fmt.Println(string(rounds))
	}

	if err := st.Flush(); err != nil {
		log.Fatal("saving state", zap.Error(err))
	}
}

func ingestSamples(ctx context.Context, st store.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read samples: %w", err)
	}

	var samples []market.Sample
	if err := yaml.Unmarshal(data, &samples); err != nil {
		return 0, fmt.Errorf("parse samples %s: %w", path, err)
	}
	for _, s := range samples {
		if err := st.SaveMarketSample(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(samples), nil
}
