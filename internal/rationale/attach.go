package rationale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/meetmatch/internal/ai"
	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/matching"
	"github.com/spigell/meetmatch/internal/resilience"
	"github.com/spigell/meetmatch/internal/telemetry"
)

const (
	defaultConcurrency = 4
	defaultTimeout     = 30 * time.Second
	defaultBackoff     = 2 * time.Second
)

// Config controls how rationales are requested.
type Config struct {
	Enabled     bool          `mapstructure:"enabled"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Attempts    int           `mapstructure:"attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		Concurrency: defaultConcurrency,
		Timeout:     defaultTimeout,
		Attempts:    2,
		Backoff:     defaultBackoff,
	}
}

// Attacher fills WhatYouShare and Icebreakers on matches.
type Attacher struct {
	explainer ai.Explainer
	cfg       Config
	logger    *zap.Logger
	metrics   *telemetry.Metrics
}

// NewAttacher returns an Attacher. A nil explainer, or a disabled config,
// makes every match use the deterministic fallback.
func NewAttacher(explainer ai.Explainer, cfg Config, log *zap.Logger) *Attacher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if !cfg.Enabled {
		explainer = nil
	}

	return &Attacher{
		explainer: explainer,
		cfg:       cfg,
		logger:    logger.WithFields(log),
		metrics:   telemetry.Default(),
	}
}

// Attach explains each match at most once. Explainer failures never fail the
// run; they yield a fallback rationale plus a warning. Only cancellation of
// ctx is returned as an error.
func (a *Attacher) Attach(ctx context.Context, matches []*matching.Match) ([]matching.Warning, error) {
	fellBack := make([]bool, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)

	for i, m := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fellBack[i] = !a.attachOne(gctx, m)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("attach rationales: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("attach rationales: %w", err)
	}

	var warnings []matching.Warning
	for i, fb := range fellBack {
		if !fb {
			continue
		}
		m := matches[i]
		warnings = append(warnings, matching.Warning{
			Code:       matching.WarnRationaleFallback,
			ProfileIDs: []string{m.AttendeeID, m.MatchID},
			Message:    "rationale generated without the AI provider",
		})
	}

	return warnings, nil
}

// attachOne reports whether the explainer produced the rationale.
func (a *Attacher) attachOne(ctx context.Context, m *matching.Match) bool {
	log := a.logger.With(logger.PairFields(m.AttendeeID, m.MatchID)...)

	if a.explainer == nil {
		a.applyFallback(m)
		a.metrics.ObserveRationale(ctx, matching.SourceFallback, false)
		return false
	}

	shared, icebreakers, err := a.explain(ctx, m)
	a.metrics.ObserveRationale(ctx, sourceOf(err), true)
	if err != nil {
		log.Warn("rationale fell back to deterministic text", zap.Error(err))
		a.applyFallback(m)
		return false
	}

	if len(shared) == 0 {
		shared, _ = Fallback(m.AttendeeProfile, m.MatchProfile)
	}
	m.WhatYouShare = shared
	m.Icebreakers = icebreakers
	m.RationaleSource = matching.SourceAI

	log.Debug("rationale attached",
		zap.Int("shared", len(shared)),
		zap.Int("icebreakers", len(icebreakers)),
	)
	return true
}

func (a *Attacher) explain(ctx context.Context, m *matching.Match) ([]string, []string, error) {
	policy := resilience.Policy{Attempts: a.cfg.Attempts, Delay: a.cfg.Backoff}

	explanation, err := resilience.Retry(ctx, policy, func(ctx context.Context) (*ai.Explanation, error) {
		callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()

		e, err := a.explainer.Explain(callCtx, m.AttendeeProfile, m.MatchProfile)
		if errors.Is(err, ai.ErrMalformedResponse) {
			return nil, resilience.Permanent(err)
		}
		return e, err
	})
	if err != nil {
		return nil, nil, err
	}

	return Sanitize(explanation)
}

func (a *Attacher) applyFallback(m *matching.Match) {
	m.WhatYouShare, m.Icebreakers = Fallback(m.AttendeeProfile, m.MatchProfile)
	m.RationaleSource = matching.SourceFallback
	m.AddFlag(matching.FlagRationaleFallback)
}

func sourceOf(err error) string {
	if err != nil {
		return matching.SourceFallback
	}
	return matching.SourceAI
}
