package scoring

import (
	"math"
	"strings"

	"github.com/spigell/meetmatch/internal/profile"
)

const (
	DefaultMidpoint  = 0.5
	DefaultSteepness = 2.0

	maxNetworkBonus = 0.1
)

// Scorer turns a pair of profiles into a compatibility score in [0,1].
// The zero value is not usable, build it with NewScorer.
type Scorer struct {
	Midpoint  float64
	Steepness float64
}

func NewScorer() *Scorer {
	return &Scorer{Midpoint: DefaultMidpoint, Steepness: DefaultSteepness}
}

// Breakdown is every intermediate value of one score computation.
type Breakdown struct {
	Factors        Factors `json:"factors"`
	Weights        Weights `json:"weights"`
	WeightedSum    float64 `json:"weightedSum"`
	NetworkBonus   float64 `json:"networkBonus"`
	TemporalFactor float64 `json:"temporalFactor"`
	Score          float64 `json:"score"`
}

func (s *Scorer) Score(a, b *profile.Profile) float64 {
	return s.Breakdown(a, b).Score
}

func (s *Scorer) Breakdown(a, b *profile.Profile) Breakdown {
	factors := ExtractFactors(a, b)
	weights := DeriveWeights(a, b)

	var sum float64
	fv, wv := factors.asList(), weights.asList()
	for i := range fv {
		sum += s.sigmoid(fv[i]) * wv[i]
	}

	bonus := NetworkBonus(a, b)
	temporal := TemporalFactor(a, b)

	return Breakdown{
		Factors:        factors,
		Weights:        weights,
		WeightedSum:    sum,
		NetworkBonus:   bonus,
		TemporalFactor: temporal,
		Score:          clamp((sum+bonus)*temporal, 0, 1),
	}
}

func (s *Scorer) sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-s.Steepness*(v-s.Midpoint)))
}

// NetworkBonus rewards likely mutual connections and complementary skill
// sets, capped at 0.1.
func NetworkBonus(a, b *profile.Profile) float64 {
	return min(maxNetworkBonus, float64(MutualConnections(a, b))*0.02+NetworkDiversity(a, b)*0.05)
}

// MutualConnections is a heuristic estimate from location, industry and
// startup affiliation.
func MutualConnections(a, b *profile.Profile) int {
	var n int

	if strings.EqualFold(strings.TrimSpace(a.Location), strings.TrimSpace(b.Location)) {
		n += 2
	}
	if intersectionSize(toSet(Industries(a)), toSet(Industries(b))) > 0 {
		n += 3
	}
	if strings.Contains(strings.ToLower(a.Company), "startup") &&
		strings.Contains(strings.ToLower(b.Company), "startup") {
		n += 2
	}

	return n
}

// NetworkDiversity is the share of the skill union that only one side has.
func NetworkDiversity(a, b *profile.Profile) float64 {
	s1, s2 := lowerSet(a.Skills), lowerSet(b.Skills)
	union := unionSize(s1, s2)
	if union == 0 {
		return 0
	}
	return float64(union-intersectionSize(s1, s2)) / float64(union)
}

// TemporalFactor scales the score by career stage alignment and trending
// skills, within [0.8, 1.0].
func TemporalFactor(a, b *profile.Profile) float64 {
	return 0.8 + StageAlignment(a, b)*0.15 + TrendAlignment(a, b)*0.05
}

func StageAlignment(a, b *profile.Profile) float64 {
	s1, s2 := Stage(a), Stage(b)
	if v, ok := stageAlignment[[2]CareerStage{s1, s2}]; ok {
		return v
	}
	if v, ok := stageAlignment[[2]CareerStage{s2, s1}]; ok {
		return v
	}
	return defaultStageAlignment
}

func TrendAlignment(a, b *profile.Profile) float64 {
	return min(1, float64(trendingCount(a)+trendingCount(b))/6)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
