package rationale

import (
	"fmt"
	"strings"

	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/scoring"
)

const genericShared = "Shared interest in professional networking"

// Fallback builds a rationale from the profiles alone. It is deterministic
// and always yields at least one shared factor and three icebreakers.
func Fallback(attendee, match *profile.Profile) (shared, icebreakers []string) {
	skills := scoring.SharedSkills(attendee, match)
	region := scoring.SharedRegion(attendee, match)

	for i, skill := range skills {
		if i == 3 {
			break
		}
		shared = append(shared, skill)
	}
	for _, d := range scoring.SharedDomains(attendee, match) {
		shared = append(shared, titleCase(d)+" domain")
	}
	if region != "" {
		shared = append(shared, "Based in "+region)
	}
	for _, c := range scoring.SharedCertifications(attendee, match) {
		shared = append(shared, c+" certification")
	}
	for _, i := range scoring.SharedInterests(attendee, match) {
		shared = append(shared, "Interest in "+i)
	}
	if scoring.GoalCompatibility(attendee, match) == 1 {
		shared = append(shared, "Complementary networking goals")
	}
	if scoring.RoleComplementarity(attendee, match) == 1 {
		shared = append(shared, "Complementary roles")
	}

	shared = clean(shared, maxShared)
	if len(shared) == 0 {
		shared = []string{genericShared}
	}

	return shared, fallbackIcebreakers(match, skills, region)
}

func fallbackIcebreakers(match *profile.Profile, sharedSkills []string, region string) []string {
	var out []string

	if company := strings.TrimSpace(match.Company); company != "" {
		out = append(out, fmt.Sprintf("Your work at %s sounds interesting. What are you focused on right now?", company))
	} else {
		out = append(out, "What are you focused on at work right now?")
	}

	if title := strings.TrimSpace(match.Title); title != "" {
		out = append(out, fmt.Sprintf("What led you to become a %s?", strings.ToLower(title)))
	} else {
		out = append(out, "What path led you to your current role?")
	}

	switch {
	case len(sharedSkills) > 0:
		out = append(out, fmt.Sprintf("How do you use %s in your day-to-day work?", sharedSkills[0]))
	case region != "":
		out = append(out, fmt.Sprintf("What opportunities do you see for collaboration in %s?", region))
	default:
		out = append(out, "What are you hoping to get out of this event?")
	}

	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s == "ai/ml" {
		return "AI/ML"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
