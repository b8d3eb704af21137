package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/meetmatch/internal/profile"
)

func engineer(id string) *profile.Profile {
	p := &profile.Profile{
		ID:             id,
		Name:           "Engineer " + id,
		Title:          "Senior Software Engineer",
		Company:        "Acme Tech",
		Location:       "Minneapolis, MN",
		Skills:         []string{"Go", "Python", "Cloud"},
		Certifications: []string{"AWS"},
		Experience:     []string{"Built cloud platform services for fintech customers"},
		Interests:      []string{"AI"},
		Goal:           "Technical collaboration",
	}
	p.Normalize()
	return p
}

func nurse(id string) *profile.Profile {
	p := &profile.Profile{
		ID:             id,
		Name:           "Nurse " + id,
		Title:          "Registered Nurse",
		Company:        "Mercy Health",
		Location:       "Tampa, FL",
		Skills:         []string{"Patient care", "Triage"},
		Certifications: []string{"RN", "BLS"},
		Experience:     []string{"Emergency room shifts"},
		Interests:      []string{"Wellness"},
		Goal:           "Expand my network",
	}
	p.Normalize()
	return p
}

func platformEngineer(id string) *profile.Profile {
	p := &profile.Profile{
		ID:         id,
		Name:       "Platform " + id,
		Title:      "Software Engineer",
		Company:    "Northwind Tech",
		Location:   "Seattle, WA",
		Skills:     []string{"Go", "Kubernetes"},
		Experience: []string{"Operated container platforms"},
		Interests:  []string{"Open source"},
		Goal:       "Find a cofounder",
	}
	p.Normalize()
	return p
}

func founder(id string) *profile.Profile {
	p := &profile.Profile{
		ID:         id,
		Name:       "Founder " + id,
		Title:      "Founder & CEO",
		Company:    "Loop Startup Labs",
		Location:   "St. Paul, MN",
		Skills:     []string{"Fundraising", "Python", "Sales"},
		Experience: []string{"Founded a SaaS analytics company serving retail brands"},
		Interests:  []string{"Startups", "Machine Learning"},
		Goal:       "Find clients",
	}
	p.Normalize()
	return p
}

func fixtures() []*profile.Profile {
	empty := &profile.Profile{ID: "empty", Name: "Empty"}
	empty.Normalize()
	return []*profile.Profile{engineer("e"), nurse("n"), platformEngineer("p"), founder("f"), empty}
}

func TestFactorsStayInRange(t *testing.T) {
	t.Parallel()

	for _, a := range fixtures() {
		for _, b := range fixtures() {
			for i, v := range ExtractFactors(a, b).asList() {
				assert.GreaterOrEqualf(t, v, 0.0, "factor %d for %s/%s", i, a.ID, b.ID)
				assert.LessOrEqualf(t, v, 1.0, "factor %d for %s/%s", i, a.ID, b.ID)
			}
		}
	}
}

func TestSetFactorsAreSymmetric(t *testing.T) {
	t.Parallel()

	for _, a := range fixtures() {
		for _, b := range fixtures() {
			assert.Equal(t, DomainOverlap(a, b), DomainOverlap(b, a))
			assert.Equal(t, SkillsAlignment(a, b), SkillsAlignment(b, a))
			assert.Equal(t, CertificationOverlap(a, b), CertificationOverlap(b, a))
			assert.Equal(t, RoleComplementarity(a, b), RoleComplementarity(b, a))
			assert.Equal(t, GoalCompatibility(a, b), GoalCompatibility(b, a))
			assert.Equal(t, LocationBonus(a, b), LocationBonus(b, a))
		}
	}
}

func TestDerivedWeightsSumToOne(t *testing.T) {
	t.Parallel()

	require.NoError(t, BaseWeights().Validate())

	for _, a := range fixtures() {
		for _, b := range fixtures() {
			w := DeriveWeights(a, b)
			assert.InDelta(t, 1.0, w.Sum(), 1e-9)
			assert.NoError(t, w.Validate())
		}
	}
}

func TestWeightsValidateRejectsBadSets(t *testing.T) {
	t.Parallel()

	w := BaseWeights()
	w.DomainOverlap = 0.5
	assert.Error(t, w.Validate())

	w = BaseWeights()
	w.DomainOverlap = -0.05
	w.RoleComplementarity = 0.50
	assert.Error(t, w.Validate())
}

func TestScoreIsDeterministicAndBounded(t *testing.T) {
	t.Parallel()

	scorer := NewScorer()
	for _, a := range fixtures() {
		for _, b := range fixtures() {
			first := scorer.Score(a, b)
			assert.Equal(t, first, scorer.Score(a, b))
			assert.GreaterOrEqual(t, first, 0.0)
			assert.LessOrEqual(t, first, 1.0)
		}
	}
}

func TestEmptyProfilesScoreWithinRange(t *testing.T) {
	t.Parallel()

	a := &profile.Profile{ID: "a", Name: "A"}
	b := &profile.Profile{ID: "b", Name: "B"}

	breakdown := NewScorer().Breakdown(a, b)
	assert.InDelta(t, 0.0, breakdown.Factors.SkillsAlignment, 1e-12)
	assert.InDelta(t, 1.0, breakdown.Factors.LocationBonus, 1e-12)
	assert.InDelta(t, 0.8, breakdown.Factors.GoalCompatibility, 1e-12)
	assert.InDelta(t, 0.1, breakdown.NetworkBonus, 1e-12, "equal empty locations and the general industry")
	assert.GreaterOrEqual(t, breakdown.Score, 0.0)
	assert.LessOrEqual(t, breakdown.Score, 1.0)
}

func TestIdenticalProfilesScoreHigh(t *testing.T) {
	t.Parallel()

	breakdown := NewScorer().Breakdown(engineer("a"), engineer("b"))

	assert.InDelta(t, 1.0, breakdown.Factors.DomainOverlap, 1e-12)
	assert.InDelta(t, 1.0, breakdown.Factors.SkillsAlignment, 1e-12)
	assert.InDelta(t, 0.8, breakdown.Factors.GoalCompatibility, 1e-12)
	assert.InDelta(t, 0.6, breakdown.Factors.ExperienceRelevance, 1e-12)
	assert.InDelta(t, 0.1, breakdown.NetworkBonus, 1e-12)
	assert.InDelta(t, 0.6777, breakdown.Score, 0.001)
}

func TestDisjointProfilesScoreLow(t *testing.T) {
	t.Parallel()

	breakdown := NewScorer().Breakdown(platformEngineer("a"), nurse("b"))

	assert.Zero(t, breakdown.Factors.DomainOverlap)
	assert.Zero(t, breakdown.Factors.SkillsAlignment)
	assert.InDelta(t, 0.2, breakdown.Factors.GoalCompatibility, 1e-12)
	assert.InDelta(t, 0.05, breakdown.NetworkBonus, 1e-12)
	assert.InDelta(t, 0.3008, breakdown.Score, 0.001)
	assert.Less(t, breakdown.Score, 0.5)
}

func TestFounderAndEngineerAreComplementary(t *testing.T) {
	t.Parallel()

	a, b := founder("f"), engineer("e")

	assert.Equal(t, 1.0, RoleComplementarity(a, b))
	assert.Equal(t, 0.5, LocationBonus(a, b))
	assert.Equal(t, 1.3, SeniorityMultiplier(a, b))
	assert.Equal(t, 1.0, SeniorityMultiplier(b, engineer("other")))
}

func TestEmptyValuesCompareAsEqual(t *testing.T) {
	t.Parallel()

	a := &profile.Profile{ID: "a", Name: "A"}
	b := &profile.Profile{ID: "b", Name: "B", Location: "  "}

	assert.Equal(t, 1.0, LocationBonus(a, b))
	assert.Equal(t, 0.8, GoalCompatibility(a, b))
	assert.Equal(t, 5, MutualConnections(a, b))

	b.Location = "Austin, TX"
	b.Goal = "Find a cofounder"
	assert.Zero(t, LocationBonus(a, b), "an empty location has no region")
	assert.Equal(t, 0.2, GoalCompatibility(a, b))
	assert.Equal(t, 3, MutualConnections(a, b))
}
