package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/archive"
	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/matching"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List archived runs, or print the matches of one run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runHistory(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to list, 0 lists all")
}

func runHistory(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	db, err := archive.NewDB(config.Archive.Path)
	if err != nil {
		logger.Fatal("opening the archive", zap.Error(err), zap.String("path", config.Archive.Path))
	}
	defer db.Close()

	if len(args) == 0 {
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			logger.Fatal("listing runs", zap.Error(err))
		}
		if runs == nil {
			runs = []archive.RunInfo{}
		}
		if err := writeJSON("", runs); err != nil {
			logger.Fatal("writing runs", zap.Error(err))
		}
		return
	}

	run, err := db.LoadRun(ctx, args[0])
	if errors.Is(err, archive.ErrNotFound) {
		logger.Fatal("run not found", zap.String("run_id", args[0]))
	}
	if err != nil {
		logger.Fatal("loading run", zap.Error(err))
	}

	result := &report{
		RunID:     run.ID,
		Method:    run.Summary.Method,
		Matches:   run.Matches,
		Unmatched: []string{},
		Warnings:  run.Warnings,
		Summary:   run.Summary,
	}
	if result.Warnings == nil {
		result.Warnings = []matching.Warning{}
	}
	if err := writeJSON("", result); err != nil {
		logger.Fatal("writing run", zap.Error(err))
	}
}
