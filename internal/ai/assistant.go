package ai

import (
	"context"
	"errors"

	"github.com/spigell/meetmatch/internal/profile"
)

// ErrMalformedResponse is returned when the model answer cannot be turned
// into the expected shape.
var ErrMalformedResponse = errors.New("malformed model response")

// Explanation is the human readable rationale for one match.
type Explanation struct {
	SharedFactors []string `mapstructure:"whatYouShare"`
	Icebreakers   []string `mapstructure:"icebreakers"`
	Raw           string   `mapstructure:"-"`
}

// Explainer produces shared factors and icebreakers for a finalized pair.
// Implementations may fail or time out; callers fall back to a
// deterministic rationale.
type Explainer interface {
	Explain(ctx context.Context, attendee, match *profile.Profile) (*Explanation, error)
}

// Structurer turns raw resume text into a profile. The returned profile
// carries no id; callers assign one.
type Structurer interface {
	Structure(ctx context.Context, source, text string) (*profile.Profile, error)
}
