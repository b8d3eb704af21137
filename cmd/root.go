package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/meetmatch/internal/matching"
	"github.com/spigell/meetmatch/internal/rationale"
	"github.com/spigell/meetmatch/internal/telemetry"
)

const (
	app = "meetmatch"
)

type Config struct {
	Roster      string            `mapstructure:"roster"`
	ExcludeFile string            `mapstructure:"exclude-file"`
	Output      string            `mapstructure:"output"`
	Matching    *MatchingConfig   `mapstructure:"matching"`
	Rationale   *RationaleConfig  `mapstructure:"rationale"`
	AI          *AIConfig         `mapstructure:"ai"`
	Archive     *ArchiveConfig    `mapstructure:"archive"`
	Telemetry   *telemetry.Config `mapstructure:"telemetry"`
}

type MatchingConfig struct {
	// Workers bounds the scoring pool; 0 uses GOMAXPROCS.
	Workers         int `mapstructure:"workers"`
	matching.Policy `mapstructure:",squash"`
}

type RationaleConfig struct {
	rationale.Config `mapstructure:",squash"`
	Event            string `mapstructure:"event"`
	Tone             string `mapstructure:"tone"`
	Instructions     string `mapstructure:"instructions"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string `mapstructure:"api-key" json:"-"`
	APIKeyFile        string `mapstructure:"api-key-file"`
	Model             string `mapstructure:"model"`
	MaxRetries        int    `mapstructure:"max-retries"`
	MaxLogLength      int    `mapstructure:"max-log-length"`
	RequestsPerMinute int    `mapstructure:"requests-per-minute"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func defaultConfig() *Config {
	return &Config{
		Matching:  &MatchingConfig{Policy: matching.DefaultPolicy()},
		Rationale: &RationaleConfig{Config: rationale.DefaultConfig()},
		AI: &AIConfig{
			Provider: "gemini",
			Gemini:   &GeminiConfig{MaxRetries: 3, RequestsPerMinute: 10},
		},
		Archive:   &ArchiveConfig{Path: app + ".db"},
		Telemetry: &telemetry.Config{},
	}
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "meetmatch pairs event attendees into compatible one-to-one networking matches",
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
	if err := viper.BindEnv("roster", "MEETMATCH_ROSTER"); err != nil {
		log.Fatalf("binding MEETMATCH_ROSTER environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is meetmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every command works without a config file; a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

// getConfig decodes the configuration over the defaults, so partial sections
// keep the default values of the keys they omit.
func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if config.Matching == nil {
		config.Matching = defaultConfig().Matching
	}
	if config.Rationale == nil {
		config.Rationale = defaultConfig().Rationale
	}
	if config.AI == nil {
		config.AI = defaultConfig().AI
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = defaultConfig().AI.Gemini
	}
	if config.Archive == nil {
		config.Archive = defaultConfig().Archive
	}
	if config.Telemetry == nil {
		config.Telemetry = defaultConfig().Telemetry
	}

	return config, nil
}
