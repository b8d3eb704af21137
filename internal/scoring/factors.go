package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/spigell/meetmatch/internal/profile"
)

// Factors holds the seven per-pair compatibility signals, each in [0,1].
type Factors struct {
	DomainOverlap        float64 `json:"domainOverlap"`
	RoleComplementarity  float64 `json:"roleComplementarity"`
	SkillsAlignment      float64 `json:"skillsAlignment"`
	GoalCompatibility    float64 `json:"goalCompatibility"`
	LocationBonus        float64 `json:"locationBonus"`
	CertificationOverlap float64 `json:"certificationOverlap"`
	ExperienceRelevance  float64 `json:"experienceRelevance"`
}

func (f Factors) asList() []float64 {
	return []float64{
		f.DomainOverlap, f.RoleComplementarity, f.SkillsAlignment,
		f.GoalCompatibility, f.LocationBonus, f.CertificationOverlap,
		f.ExperienceRelevance,
	}
}

// ExtractFactors computes every factor for the pair.
func ExtractFactors(a, b *profile.Profile) Factors {
	return Factors{
		DomainOverlap:        DomainOverlap(a, b),
		RoleComplementarity:  RoleComplementarity(a, b),
		SkillsAlignment:      SkillsAlignment(a, b),
		GoalCompatibility:    GoalCompatibility(a, b),
		LocationBonus:        LocationBonus(a, b),
		CertificationOverlap: CertificationOverlap(a, b),
		ExperienceRelevance:  ExperienceRelevance(a, b),
	}
}

func DomainOverlap(a, b *profile.Profile) float64 {
	return jaccard(toSet(Domains(a)), toSet(Domains(b)))
}

// RoleComplementarity is 1 when the titles hold the two sides of a known
// complementary pair, in either order.
func RoleComplementarity(a, b *profile.Profile) float64 {
	if matchesPair(strings.ToLower(a.Title), strings.ToLower(b.Title), complementaryRoles) {
		return 1
	}
	return 0
}

func SkillsAlignment(a, b *profile.Profile) float64 {
	return jaccard(lowerSet(a.Skills), lowerSet(b.Skills))
}

// GoalCompatibility is 1 for complementary goals, 0.8 for identical ones and
// 0.2 otherwise. A missing goal carries no signal.
func GoalCompatibility(a, b *profile.Profile) float64 {
	const (
		complementary = 1.0
		same          = 0.8
		unrelated     = 0.2
	)

	g1 := strings.ToLower(strings.TrimSpace(a.Goal))
	g2 := strings.ToLower(strings.TrimSpace(b.Goal))
	if matchesPair(g1, g2, complementaryGoals) {
		return complementary
	}
	if g1 == g2 {
		return same
	}
	return unrelated
}

// LocationBonus is 1 for the same location, 0.5 when the region after the
// first comma matches and 0 otherwise.
func LocationBonus(a, b *profile.Profile) float64 {
	l1 := strings.ToLower(strings.TrimSpace(a.Location))
	l2 := strings.ToLower(strings.TrimSpace(b.Location))
	if l1 == l2 {
		return 1
	}
	if r1, r2 := region(l1), region(l2); r1 != "" && r1 == r2 {
		return 0.5
	}
	return 0
}

func CertificationOverlap(a, b *profile.Profile) float64 {
	return jaccard(lowerSet(a.Certifications), lowerSet(b.Certifications))
}

// ExperienceRelevance counts words longer than three runes from the first
// profile's experience that also appear in the second's, ten hits saturate.
func ExperienceRelevance(a, b *profile.Profile) float64 {
	tokens1 := strings.Fields(strings.ToLower(strings.Join(a.Experience, " ")))
	tokens2 := toSet(strings.Fields(strings.ToLower(strings.Join(b.Experience, " "))))

	var hits int
	for _, tok := range tokens1 {
		if utf8.RuneCountInString(tok) <= 3 {
			continue
		}
		if _, ok := tokens2[tok]; ok {
			hits++
		}
	}

	return min(1, float64(hits)/10)
}

func region(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func matchesPair(t1, t2 string, pairs [][2]string) bool {
	for _, p := range pairs {
		if strings.Contains(t1, p[0]) && strings.Contains(t2, p[1]) {
			return true
		}
		if strings.Contains(t1, p[1]) && strings.Contains(t2, p[0]) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// lowerSet trims and lowercases items, skipping blanks.
func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if v := strings.ToLower(strings.TrimSpace(item)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func intersectionSize(a, b map[string]struct{}) int {
	var n int
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func unionSize(a, b map[string]struct{}) int {
	return len(a) + len(b) - intersectionSize(a, b)
}

func jaccard(a, b map[string]struct{}) float64 {
	union := unionSize(a, b)
	if union == 0 {
		return 0
	}
	return float64(intersectionSize(a, b)) / float64(union)
}
