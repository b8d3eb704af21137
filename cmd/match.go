package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/archive"
	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/pipeline"
	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/rationale"
	"github.com/spigell/meetmatch/internal/scoring"
	"github.com/spigell/meetmatch/internal/telemetry"
)

const (
	PromptPrintMatches       = "Print matches"
	PromptReportByConfidence = "Report by confidence"
	PromptMatchesToFile      = "Dump matches to file"
	PromptExit               = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptPrintMatches, PromptReportByConfidence, PromptMatchesToFile, PromptExit},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Pair the attendees of a roster and explain every match",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("roster", "r", "", "roster file with attendee profiles (json or yaml)")
	matchCmd.Flags().StringP("exclude-file", "e", "", "file with attendee ids to leave out of the run. Default is unset.")
	matchCmd.Flags().StringP("output", "o", "", "write the result to a file instead of stdout")
	matchCmd.Flags().BoolP("auto-approve", "y", false, "do not show the interactive menu after the run")
	matchCmd.Flags().Bool("no-ai", false, "use the deterministic rationale for every match")
	matchCmd.Flags().Bool("metrics", false, "collect run metrics and add them to the result")

	viper.BindPFlag("roster", matchCmd.Flags().Lookup("roster"))
	viper.BindPFlag("exclude-file", matchCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("output", matchCmd.Flags().Lookup("output"))
	viper.BindPFlag("telemetry.enabled", matchCmd.Flags().Lookup("metrics"))
}

func runMatch(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		base.Fatal("getting a config", zap.Error(err))
	}

	runID := uuid.NewString()
	logger := logger.WithRun(base, runID)

	logger.Info("starting the meetmatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if strings.TrimSpace(config.Roster) == "" {
		logger.Fatal("roster file is required",
			zap.String("hint", "pass --roster, set MEETMATCH_ROSTER or the 'roster' key in the configuration file"),
		)
	}

	roster, err := profile.Load(config.Roster)
	if err != nil {
		logger.Fatal("loading the roster", zap.Error(err))
	}
	logger.Info("roster loaded", zap.Int("attendees", roster.Len()))

	noAI, _ := cmd.Flags().GetBool("no-ai")
	if noAI {
		config.Rationale.Enabled = false
	}

	var metrics *telemetry.Provider
	if config.Telemetry.Enabled {
		metrics = telemetry.Init()
		defer func() {
			if err := metrics.Shutdown(context.Background()); err != nil {
				logger.Warn("shutting down metrics", zap.Error(err))
			}
		}()
	}

	stages, closeArchive := prepareStages(ctx, config, logger)
	defer closeArchive()

	for _, status := range pipeline.Describe(stages) {
		logger.Debug("stage status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	state := pipeline.NewState(runID, roster)
	if err := pipeline.Run(ctx, pipeline.Deps{Logger: logger}, stages, state); err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	result := newReport(runID, state.Assignment)
	attachMetrics(ctx, metrics, result, logger)
	logger.Info("matching completed",
		zap.Int("matches", result.Summary.TotalMatches),
		zap.Int("unmatched", result.Summary.Unmatched),
		zap.Float64("average_score", result.Summary.AverageScore),
		zap.Int("warnings", len(result.Warnings)),
	)

	if err := writeJSON(config.Output, result); err != nil {
		logger.Fatal("writing the result", zap.Error(err))
	}

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, result *report) error {
	switch action {
	case PromptPrintMatches:
		return writeJSON("", result.Matches)
	case PromptReportByConfidence:
		writeConfidenceReport(os.Stdout, result.Matches)
		return nil
	case PromptMatchesToFile:
		filename, err := dumpToTmpFile(result)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// attachMetrics adds the collected run metrics to the result. A nil provider
// leaves the result untouched.
func attachMetrics(ctx context.Context, provider *telemetry.Provider, result *report, logger *zap.Logger) {
	if provider == nil {
		return
	}
	snapshot, err := provider.Snapshot(ctx)
	if err != nil {
		logger.Warn("collecting run metrics", zap.Error(err))
		return
	}
	result.Metrics = snapshot
	logger.Debug("run metrics", zap.Any("metrics", snapshot))
}

// prepareStages builds the run pipeline. The returned func closes the
// archive when one was opened.
func prepareStages(ctx context.Context, config *Config, logger *zap.Logger) ([]pipeline.Stage, func()) {
	explainer, mode := newExplainer(ctx, config, logger)
	attacher := rationale.NewAttacher(explainer, config.Rationale.Config, logger)

	archiveStage := pipeline.NewArchive(nil)
	closeArchive := func() {}
	if config.Archive.Enabled {
		db, err := archive.NewDB(config.Archive.Path)
		if err != nil {
			logger.Fatal("opening the archive", zap.Error(err), zap.String("path", config.Archive.Path))
		}
		archiveStage = pipeline.NewArchive(db)
		closeArchive = func() {
			if err := db.Close(); err != nil {
				logger.Warn("closing the archive", zap.Error(err))
			}
		}
	}

	stages := []pipeline.Stage{
		pipeline.NewExcludeFile(config.ExcludeFile),
		pipeline.NewScore(scoring.NewScorer(), config.Matching.Workers),
		pipeline.NewAssign(config.Matching.Policy),
		pipeline.NewRationale(attacher, mode),
		archiveStage,
	}

	return stages, closeArchive
}
