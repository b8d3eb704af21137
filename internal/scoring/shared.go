package scoring

import (
	"strings"

	"github.com/spigell/meetmatch/internal/profile"
)

// SharedSkills returns the skills both profiles list, in the first profile's
// order and spelling.
func SharedSkills(a, b *profile.Profile) []string {
	return sharedItems(a.Skills, b.Skills)
}

func SharedInterests(a, b *profile.Profile) []string {
	return sharedItems(a.Interests, b.Interests)
}

func SharedCertifications(a, b *profile.Profile) []string {
	return sharedItems(a.Certifications, b.Certifications)
}

// SharedDomains returns common domains, leaving out the general fallback.
func SharedDomains(a, b *profile.Profile) []string {
	other := toSet(Domains(b))
	var out []string
	for _, d := range Domains(a) {
		if d == labelGeneral {
			continue
		}
		if _, ok := other[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// SharedRegion returns the common location or region as written in the first
// profile, or an empty string.
func SharedRegion(a, b *profile.Profile) string {
	switch LocationBonus(a, b) {
	case 1:
		return strings.TrimSpace(a.Location)
	case 0.5:
		parts := strings.Split(a.Location, ",")
		return strings.TrimSpace(parts[1])
	default:
		return ""
	}
}

func sharedItems(first, second []string) []string {
	other := lowerSet(second)
	seen := make(map[string]struct{}, len(first))

	var out []string
	for _, item := range first {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if _, ok := other[key]; ok {
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(item))
		}
	}
	return out
}
