package scoring

import (
	"fmt"
	"math"

	"github.com/spigell/meetmatch/internal/profile"
)

// Weights defines the relative importance of each factor for one pair.
// Derived weights always sum to 1.0.
type Weights struct {
	DomainOverlap        float64 `json:"domainOverlap"`
	RoleComplementarity  float64 `json:"roleComplementarity"`
	SkillsAlignment      float64 `json:"skillsAlignment"`
	GoalCompatibility    float64 `json:"goalCompatibility"`
	LocationBonus        float64 `json:"locationBonus"`
	CertificationOverlap float64 `json:"certificationOverlap"`
	ExperienceRelevance  float64 `json:"experienceRelevance"`
}

// BaseWeights returns the weight distribution before per-pair adjustment.
func BaseWeights() Weights {
	return Weights{
		DomainOverlap:        0.25,
		RoleComplementarity:  0.20,
		SkillsAlignment:      0.20,
		GoalCompatibility:    0.15,
		LocationBonus:        0.05,
		CertificationOverlap: 0.10,
		ExperienceRelevance:  0.05,
	}
}

func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w.asList() {
		total += v
	}
	return total
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range w.asList() {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}

func (w Weights) asList() []float64 {
	return []float64{
		w.DomainOverlap, w.RoleComplementarity, w.SkillsAlignment,
		w.GoalCompatibility, w.LocationBonus, w.CertificationOverlap,
		w.ExperienceRelevance,
	}
}

func (w Weights) normalized() Weights {
	total := w.Sum()
	if total <= 0 {
		return BaseWeights()
	}
	return Weights{
		DomainOverlap:        w.DomainOverlap / total,
		RoleComplementarity:  w.RoleComplementarity / total,
		SkillsAlignment:      w.SkillsAlignment / total,
		GoalCompatibility:    w.GoalCompatibility / total,
		LocationBonus:        w.LocationBonus / total,
		CertificationOverlap: w.CertificationOverlap / total,
		ExperienceRelevance:  w.ExperienceRelevance / total,
	}
}

// DeriveWeights adjusts the base weights for a pair. A seniority gap boosts
// role and skills weights, industry overlap scales the domain weight.
func DeriveWeights(a, b *profile.Profile) Weights {
	seniority := SeniorityMultiplier(a, b)
	industry := IndustryMultiplier(a, b)

	w := BaseWeights()
	w.RoleComplementarity *= seniority
	w.SkillsAlignment *= 1 + (seniority-1)*0.5
	w.DomainOverlap *= industry

	return w.normalized()
}

// SeniorityMultiplier is 1.3 for a tier gap of two or more, 1.1 for a gap of
// one and 1.0 for peers.
func SeniorityMultiplier(a, b *profile.Profile) float64 {
	diff := Seniority(a) - Seniority(b)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff >= 2:
		return 1.3
	case diff == 1:
		return 1.1
	default:
		return 1.0
	}
}

// IndustryMultiplier ranges over [0.8, 1.2] with the industry overlap ratio.
func IndustryMultiplier(a, b *profile.Profile) float64 {
	i1, i2 := toSet(Industries(a)), toSet(Industries(b))
	union := unionSize(i1, i2)
	if union == 0 {
		return 0.8
	}
	return 0.8 + float64(intersectionSize(i1, i2))/float64(union)*0.4
}
