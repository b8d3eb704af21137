package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/ai"
	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

const (
	defaultMaxLogLength     = 200
	defaultTone             = "Friendly"
	defaultEvent            = "Networking event"
	maxUserInstructionRunes = 500
)

// PromptOverrides lets operators steer the rationale wording.
type PromptOverrides struct {
	Event            string
	Tone             string
	UserInstructions string
}

// Explainer asks Gemini for the shared factors and icebreakers of a pair.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	overrides PromptOverrides
}

func NewExplainer(generator contentGenerator, maxLogLength int, log *zap.Logger) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Explainer{
		generator: generator,
		logger:    logger.WithFields(log),
		maxLogLen: maxLogLength,
	}
}

func (e *Explainer) SetPromptOverrides(o PromptOverrides) {
	e.overrides = o
}

// pairPayload is the subset of a profile the model gets to see. Contact
// fields stay out of the prompt.
type pairPayload struct {
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Skills         []string `json:"skills"`
	Certifications []string `json:"certifications"`
	Experience     []string `json:"experience"`
	Interests      []string `json:"interests"`
	Goal           string   `json:"goal"`
}

func payloadOf(p *profile.Profile) pairPayload {
	return pairPayload{
		Name:           p.Name,
		Title:          p.Title,
		Company:        p.Company,
		Location:       p.Location,
		Skills:         p.Skills,
		Certifications: p.Certifications,
		Experience:     p.Experience,
		Interests:      p.Interests,
		Goal:           p.Goal,
	}
}

func (e *Explainer) Explain(ctx context.Context, attendee, match *profile.Profile) (*ai.Explanation, error) {
	if attendee == nil || match == nil {
		return nil, fmt.Errorf("both profiles are required")
	}

	message, err := json.MarshalIndent(map[string]pairPayload{
		"attendee": payloadOf(attendee),
		"match":    payloadOf(match),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal pair payload: %w", err)
	}

	system := buildExplainPrompt(e.overrides)
	pair := logger.PairFields(attendee.ID, match.ID)

	e.logger.Debug("gemini explain request", append(pair,
		zap.Int("prompt_length", utf8.RuneCountInString(system)+len(message)),
		zap.String("message_preview", utils.Preview(string(message), e.maxLogLen)),
	)...)

	raw, err := e.generator.GenerateContent(ctx, system, string(message))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini explain response", append(pair,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.Preview(raw, e.maxLogLen)),
	)...)

	explanation, err := parseExplanation(raw)
	if err != nil {
		return nil, err
	}
	explanation.Raw = raw

	return explanation, nil
}

func parseExplanation(raw string) (*ai.Explanation, error) {
	var explanation ai.Explanation
	data, err := decodeObject(raw, &explanation)
	if err != nil {
		return nil, err
	}

	if len(explanation.SharedFactors) == 0 {
		explanation.SharedFactors = coerceStringList(data["sharedFactors"])
	}
	explanation.SharedFactors = coerceStringList(explanation.SharedFactors)
	explanation.Icebreakers = coerceStringList(explanation.Icebreakers)

	if len(explanation.Icebreakers) == 0 {
		return nil, fmt.Errorf("%w: no icebreakers in answer", ai.ErrMalformedResponse)
	}

	return &explanation, nil
}

func buildExplainPrompt(o PromptOverrides) string {
	template := explainTemplate
	if strings.TrimSpace(template) == "" {
		template = "Event: {{EVENT}}\nTone: {{TONE}}\nInstructions:\n{{USER_INSTRUCTIONS}}\n\nJSON Response:"
	}

	prompt := strings.ReplaceAll(template, "{{EVENT}}", singleLine(o.Event, defaultEvent))
	prompt = strings.ReplaceAll(prompt, "{{TONE}}", singleLine(o.Tone, defaultTone))
	prompt = strings.ReplaceAll(prompt, "{{USER_INSTRUCTIONS}}", instructionsBlock(o.UserInstructions))
	return prompt
}

// neutralizeRoles keeps operator text from imitating the prompt's section
// markers.
func neutralizeRoles(s string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}

func singleLine(s, fallback string) string {
	s = strings.Join(strings.Fields(neutralizeRoles(s)), " ")
	if s == "" {
		return fallback
	}
	return s
}

func instructionsBlock(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxUserInstructionRunes {
		runes = runes[:maxUserInstructionRunes]
	}

	var lines []string
	for _, line := range strings.Split(string(runes), "\n") {
		line = strings.Join(strings.Fields(neutralizeRoles(line)), " ")
		if line != "" {
			lines = append(lines, "  - "+line)
		}
	}
	if len(lines) == 0 {
		return "  - none"
	}
	return strings.Join(lines, "\n")
}
