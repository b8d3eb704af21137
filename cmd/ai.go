package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/ai"
	"github.com/spigell/meetmatch/internal/ai/gemini"
	"github.com/spigell/meetmatch/internal/pipeline"
	"github.com/spigell/meetmatch/internal/secrets"
)

const apiKeyHint = "set GEMINI_API_KEY_FILE, GEMINI_API_KEY or the 'ai.gemini.api-key-file' key in the configuration file"

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.ProviderName {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, apiKeyHint)
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	return gemini.NewGenerator(ctx, gemini.Config{
		APIKey:     apiKey,
		Model:      cfg.Gemini.Model,
		MaxRetries: cfg.Gemini.MaxRetries,
	}, genLogger)
}

// newExplainer returns nil when the rationale is disabled or the provider
// cannot be built; the rationale stage then falls back for every match. The
// mode tells the two cases apart.
func newExplainer(ctx context.Context, config *Config, logger *zap.Logger) (ai.Explainer, pipeline.AIMode) {
	if !config.Rationale.Enabled {
		return nil, pipeline.AIDisabled
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("AI rationale is unavailable, deterministic rationale will be used", zap.Error(err))
		return nil, pipeline.AIUnavailable
	}

	explainer := gemini.NewExplainer(generator, config.AI.Gemini.MaxLogLength, logger)
	explainer.SetPromptOverrides(gemini.PromptOverrides{
		Event:            config.Rationale.Event,
		Tone:             config.Rationale.Tone,
		UserInstructions: config.Rationale.Instructions,
	})

	return explainer, pipeline.AIEnabled
}

func newStructurer(ctx context.Context, config *Config, logger *zap.Logger) (ai.Structurer, error) {
	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		return nil, err
	}
	return gemini.NewStructurer(generator, config.AI.Gemini.MaxLogLength, logger), nil
}
