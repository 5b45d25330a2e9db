package cmd

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobpilot"
)

type Config struct {
	ProfileFile string           `mapstructure:"profile-file"`
	StateFile   string           `mapstructure:"state-file"`
	Match       *MatchConfig     `mapstructure:"match"`
	Screening   *ScreeningConfig `mapstructure:"screening"`
	Outreach    *OutreachConfig  `mapstructure:"outreach"`
	Market      *MarketConfig    `mapstructure:"market"`
	Mailscan    *MailscanConfig  `mapstructure:"mailscan"`
	AI          *AIConfig        `mapstructure:"ai"`
}

type ScreeningConfig struct {
	Companies   []string `mapstructure:"companies"`
	ExcludeFile string   `mapstructure:"exclude-file"`
}

type MatchConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

type OutreachConfig struct {
	DailyBudget         int           `mapstructure:"daily-budget"`
	MinSpacing          time.Duration `mapstructure:"min-spacing"`
	MaxSpacing          time.Duration `mapstructure:"max-spacing"`
	RequireConfirmation bool          `mapstructure:"require-confirmation"`
}

type MarketConfig struct {
	RoleFamily       string `mapstructure:"role-family"`
	Location         string `mapstructure:"location"`
	MaxSampleAgeDays int    `mapstructure:"max-sample-age-days"`
}

type MailscanConfig struct {
	LookbackDays int `mapstructure:"lookback-days"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobpilot tracks job applications: matching, drafting, outreach and inbound email triage",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobpilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("state-file", "jobpilot-state.json", "file holding tracked applications between runs")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("state-file", rootCmd.PersistentFlags().Lookup("state-file"))
}

func initConfig() {
	// A .env next to the binary may carry the Gemini key file path.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// The config file is optional; flags and defaults cover every key.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	return config, nil
}
