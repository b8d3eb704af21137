package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/ai"
	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/utils"
)

// maxResumeRunes bounds the resume text sent in one request.
const maxResumeRunes = 20000

// Structurer turns resume text into a profile with Gemini.
type Structurer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewStructurer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Structurer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Structurer{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

// Structure returns the parsed profile without an id. source only labels
// log entries.
func (s *Structurer) Structure(ctx context.Context, source, text string) (*profile.Profile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("resume %q is empty", source)
	}
	if runes := []rune(text); len(runes) > maxResumeRunes {
		text = string(runes[:maxResumeRunes])
	}

	s.logger.Debug("gemini structure request",
		zap.String("source", source),
		zap.Int("text_length", utf8.RuneCountInString(text)),
	)

	raw, err := s.generator.GenerateContent(ctx, structureTemplate, text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini structure response",
		zap.String("source", source),
		zap.String("response_preview", utils.Preview(raw, s.maxLogLen)),
	)

	return parseProfile(raw)
}

func parseProfile(raw string) (*profile.Profile, error) {
	var p profile.Profile
	if _, err := decodeObject(raw, &p); err != nil {
		return nil, err
	}

	p.ID = ""
	p.Skills = coerceStringList(p.Skills)
	p.Certifications = coerceStringList(p.Certifications)
	p.Experience = coerceStringList(p.Experience)
	p.Interests = coerceStringList(p.Interests)
	p.Normalize()

	if p.Name == "" {
		return nil, fmt.Errorf("%w: profile has no name", ai.ErrMalformedResponse)
	}

	return &p, nil
}

var (
	_ ai.Explainer  = (*Explainer)(nil)
	_ ai.Structurer = (*Structurer)(nil)
)
