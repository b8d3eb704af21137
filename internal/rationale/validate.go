package rationale

import (
	"errors"
	"strings"

	"github.com/spigell/meetmatch/internal/ai"
	"github.com/spigell/meetmatch/internal/utils"
)

const (
	maxShared      = 5
	maxIcebreakers = 3
	maxItemRunes   = 200
)

var ErrInvalidShape = errors.New("explanation has no usable icebreakers")

// Sanitize trims, dedupes and caps an explanation. Shared factors may come
// back empty; a missing icebreaker list is an error.
func Sanitize(e *ai.Explanation) (shared, icebreakers []string, err error) {
	if e == nil {
		return nil, nil, ErrInvalidShape
	}

	icebreakers = clean(e.Icebreakers, maxIcebreakers)
	if len(icebreakers) == 0 {
		return nil, nil, ErrInvalidShape
	}

	return clean(e.SharedFactors, maxShared), icebreakers, nil
}

func clean(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, min(len(items), limit))

	for _, item := range items {
		item = strings.Join(strings.Fields(item), " ")
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, utils.TruncateForLog(item, maxItemRunes))
		if len(out) == limit {
			break
		}
	}

	return out
}
