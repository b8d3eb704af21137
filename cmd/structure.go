package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/spigell/meetmatch/internal/ai"
	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/profile"
)

const structureConcurrency = 3

var structureCmd = &cobra.Command{
	Use:   "structure <dir>",
	Short: "Turn resume text files (*.txt) into a roster with the AI provider",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStructure(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(structureCmd)

	structureCmd.Flags().StringP("output", "o", "", "write the roster to a file instead of stdout")
}

func runStructure(cmd *cobra.Command, dir string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	files, err := resumeFiles(dir)
	if err != nil {
		logger.Fatal("listing resume files", zap.Error(err), zap.String("dir", dir))
	}
	if len(files) == 0 {
		logger.Info("exiting", zap.String("reason", "no *.txt files found"), zap.String("dir", dir))
		return
	}

	structurer, err := newStructurer(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the AI provider", zap.Error(err), zap.String("hint", apiKeyHint))
	}

	roster, err := structureAll(ctx, structurer, files, config.AI.Gemini.RequestsPerMinute, logger)
	if err != nil {
		logger.Fatal("structuring resumes", zap.Error(err))
	}

	logger.Info("structuring completed",
		zap.Int("files", len(files)),
		zap.Int("profiles", roster.Len()),
		zap.Int("skipped", len(files)-roster.Len()),
	)

	data, err := roster.Encode()
	if err != nil {
		logger.Fatal("encoding the roster", zap.Error(err))
	}
	data = append(data, '\n')

	output, _ := cmd.Flags().GetString("output")
	if strings.TrimSpace(output) == "" {
		_, err = os.Stdout.Write(data)
	} else {
		err = os.WriteFile(output, data, 0o644)
	}
	if err != nil {
		logger.Fatal("writing the roster", zap.Error(err))
	}
}

func resumeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// structureAll structures every file under a shared request rate. Files that
// cannot be read or structured are logged and skipped; the roster keeps the
// order of files.
func structureAll(ctx context.Context, structurer ai.Structurer, files []string, perMinute int, logger *zap.Logger) (*profile.Roster, error) {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]*profile.Profile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(structureConcurrency)

	for i, path := range files {
		g.Go(func() error {
			text, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("reading resume failed. It will be skipped.", zap.String("file", path), zap.Error(err))
				return nil
			}

			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			p, err := structurer.Structure(gctx, filepath.Base(path), string(text))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("structuring resume failed. It will be skipped.", zap.String("file", path), zap.Error(err))
				return nil
			}

			p.ID = "profile-" + uuid.NewString()
			results[i] = p

			logger.Info("resume structured", zap.String("file", path), zap.String("id", p.ID), zap.String("name", p.Name))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	roster := profile.NewRoster()
	for _, p := range results {
		if p != nil {
			roster.Items = append(roster.Items, p)
		}
	}
	return roster, nil
}
