package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/scoring"
)

type scoreFunc func(a, b *profile.Profile) float64

func (f scoreFunc) Score(a, b *profile.Profile) float64 { return f(a, b) }

// tableScorer returns fixed scores keyed by "lowID|highID" and def otherwise.
func tableScorer(def float64, scores map[string]float64) scoreFunc {
	return func(a, b *profile.Profile) float64 {
		x, y := a.ID, b.ID
		if y < x {
			x, y = y, x
		}
		if s, ok := scores[x+"|"+y]; ok {
			return s
		}
		return def
	}
}

func person(id, title, company, location string, skills ...string) *profile.Profile {
	p := &profile.Profile{
		ID:       id,
		Name:     "Name " + id,
		Title:    title,
		Company:  company,
		Location: location,
		Skills:   skills,
		Goal:     "Expand my network",
	}
	p.Normalize()
	return p
}

func eventRoster(n int) *profile.Roster {
	base := []*profile.Profile{
		person("p01", "Founder & CEO", "Loop Startup Labs", "Minneapolis, MN", "Fundraising", "Python"),
		person("p02", "Senior Software Engineer", "Acme Tech", "Minneapolis, MN", "Go", "Python", "Cloud"),
		person("p03", "Registered Nurse", "Mercy Health", "Tampa, FL", "Triage"),
		person("p04", "Junior Developer", "Maple Software", "Chicago, IL", "React", "Go"),
		person("p05", "Sales Director", "Brightline Media", "Chicago, IL", "Sales", "Marketing"),
		person("p06", "Data Scientist", "Northwind Bank", "St. Paul, MN", "Python", "Machine Learning"),
		person("p07", "Technical Recruiter", "Talent Startup Hub", "Austin, TX", "Sourcing"),
		person("p08", "Head of Product", "Cedar Health", "Tampa, FL", "Roadmapping"),
	}
	return profile.NewRoster(base[:n]...)
}

func matchAll(t *testing.T, roster *profile.Roster, scorer PairScorer, policy Policy) *Assignment {
	t.Helper()

	m, err := BuildMatrix(context.Background(), roster, scorer, 3)
	require.NoError(t, err)

	a, err := Assign(m, policy)
	require.NoError(t, err)
	return a
}

func assertDuplicateFree(t *testing.T, a *Assignment, n int) {
	t.Helper()

	seen := make(map[string]int)
	attendees := make(map[string]struct{})
	for _, m := range a.Matches {
		_, dup := attendees[m.AttendeeID]
		require.Falsef(t, dup, "attendee %s appears twice", m.AttendeeID)
		attendees[m.AttendeeID] = struct{}{}

		require.Less(t, m.AttendeeID, m.MatchID)
		seen[m.AttendeeID]++
		seen[m.MatchID]++
	}
	for _, id := range a.Unmatched {
		seen[id]++
	}

	require.Len(t, seen, n)
	for id, count := range seen {
		require.Equalf(t, 1, count, "profile %s appears %d times", id, count)
	}
}

func TestEvenRosterCoversEveryone(t *testing.T) {
	t.Parallel()

	a := matchAll(t, eventRoster(8), scoring.NewScorer(), DefaultPolicy())

	assert.Equal(t, MethodExact, a.Method)
	assert.Len(t, a.Matches, 4)
	assert.Empty(t, a.Unmatched)
	assertDuplicateFree(t, a, 8)
}

func TestOddRosterLeavesOneFlagged(t *testing.T) {
	t.Parallel()

	a := matchAll(t, eventRoster(7), scoring.NewScorer(), DefaultPolicy())

	require.Len(t, a.Matches, 3)
	require.Len(t, a.Unmatched, 1)
	assertDuplicateFree(t, a, 7)

	require.NotEmpty(t, a.Warnings)
	assert.Equal(t, WarnOddRoster, a.Warnings[0].Code)
	assert.Equal(t, a.Unmatched, a.Warnings[0].ProfileIDs)
}

func TestDisjointPairStillMatchedAndFlagged(t *testing.T) {
	t.Parallel()

	roster := profile.NewRoster(
		person("a", "Software Engineer", "Northwind Tech", "Seattle, WA", "Go", "Kubernetes"),
		person("b", "Registered Nurse", "Mercy Health", "Tampa, FL", "Patient care", "Triage"),
	)
	a := matchAll(t, roster, scoring.NewScorer(), DefaultPolicy())

	require.Len(t, a.Matches, 1)
	m := a.Matches[0]
	assert.Less(t, m.Score, 0.5)
	assert.Equal(t, ConfidenceLow, m.Confidence)
	assert.True(t, m.HasFlag(FlagLowScore))
	assert.True(t, m.HasFlag(FlagBelowQualityBar))
	assert.Equal(t, "a", m.AttendeeID)
	assert.Equal(t, "b", m.MatchID)
}

func TestIdenticalPairIsHighConfidence(t *testing.T) {
	t.Parallel()

	p := func(id string) *profile.Profile {
		v := &profile.Profile{
			ID:             id,
			Name:           id,
			Title:          "Senior Software Engineer",
			Company:        "Acme Tech",
			Location:       "Minneapolis, MN",
			Skills:         []string{"Go", "Python", "Cloud"},
			Certifications: []string{"AWS"},
			Experience:     []string{"Built cloud platform services for fintech customers"},
			Interests:      []string{"AI"},
			Goal:           "Technical collaboration",
		}
		v.Normalize()
		return v
	}

	a := matchAll(t, profile.NewRoster(p("x"), p("y")), scoring.NewScorer(), DefaultPolicy())

	require.Len(t, a.Matches, 1)
	assert.Greater(t, a.Matches[0].Score, 0.5)
	assert.Equal(t, ConfidenceHigh, a.Matches[0].Confidence)
	assert.False(t, a.Matches[0].HasFlag(FlagLowScore))
}

func TestAssignmentMaximisesUtility(t *testing.T) {
	t.Parallel()

	scorer := tableScorer(0.2, map[string]float64{
		"a|b": 0.9,
		"c|d": 0.1,
		"a|c": 0.8,
		"b|d": 0.8,
	})
	roster := profile.NewRoster(
		person("d", "", "", ""), person("c", "", "", ""),
		person("b", "", "", ""), person("a", "", "", ""),
	)

	greedy := DefaultPolicy()
	greedy.ExactLimit = 0

	for name, policy := range map[string]Policy{"exact": DefaultPolicy(), "greedy": greedy} {
		t.Run(name, func(t *testing.T) {
			a := matchAll(t, roster, scorer, policy)

			require.Len(t, a.Matches, 2)
			assert.Equal(t, "a", a.Matches[0].AttendeeID)
			assert.Equal(t, "c", a.Matches[0].MatchID)
			assert.Equal(t, "b", a.Matches[1].AttendeeID)
			assert.Equal(t, "d", a.Matches[1].MatchID)
		})
	}
}

func TestQualityBonusPrefersPairsAboveBar(t *testing.T) {
	t.Parallel()

	// Plain sums tie at 1.4; only a|b + c|d clears the bar twice.
	scorer := tableScorer(0.1, map[string]float64{
		"a|b": 0.7,
		"c|d": 0.7,
		"a|c": 0.75,
		"b|d": 0.65,
	})
	roster := profile.NewRoster(
		person("a", "", "", ""), person("b", "", "", ""),
		person("c", "", "", ""), person("d", "", "", ""),
	)

	a := matchAll(t, roster, scorer, DefaultPolicy())

	require.Len(t, a.Matches, 2)
	assert.Equal(t, "b", a.Matches[0].MatchID)
	assert.Equal(t, "d", a.Matches[1].MatchID)
}

func largeRoster(n int) *profile.Roster {
	items := make([]*profile.Profile, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, person(fmt.Sprintf("g%02d", i), "", "", ""))
	}
	return profile.NewRoster(items...)
}

// pseudoScore is a fixed, irregular score surface for large rosters.
func pseudoScore(a, b *profile.Profile) float64 {
	var h uint32 = 2166136261
	x, y := a.ID, b.ID
	if y < x {
		x, y = y, x
	}
	for _, c := range x + "|" + y {
		h ^= uint32(c)
		h *= 16777619
	}
	return float64(h%1000) / 1000
}

func TestLargeRosterUsesGreedyAndStaysDuplicateFree(t *testing.T) {
	t.Parallel()

	for _, n := range []int{20, 25} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			a := matchAll(t, largeRoster(n), scoreFunc(pseudoScore), DefaultPolicy())

			assert.Equal(t, MethodGreedy, a.Method)
			assert.Len(t, a.Matches, n/2)
			assert.Len(t, a.Unmatched, n%2)
			assertDuplicateFree(t, a, n)
		})
	}
}

func TestExactIsAtLeastAsGoodAsGreedy(t *testing.T) {
	t.Parallel()

	roster := largeRoster(12)
	exact := matchAll(t, roster, scoreFunc(pseudoScore), DefaultPolicy())

	greedyPolicy := DefaultPolicy()
	greedyPolicy.ExactLimit = 0
	greedy := matchAll(t, roster, scoreFunc(pseudoScore), greedyPolicy)

	total := func(a *Assignment) float64 {
		var sum float64
		for _, m := range a.Matches {
			sum += DefaultPolicy().utility(m.Score)
		}
		return sum
	}

	assert.GreaterOrEqual(t, total(exact)+1e-9, total(greedy))
	assertDuplicateFree(t, greedy, 12)
}

func TestAssignmentIsDeterministic(t *testing.T) {
	t.Parallel()

	ids := func(a *Assignment) []string {
		var out []string
		for _, m := range a.Matches {
			out = append(out, m.AttendeeID+"-"+m.MatchID)
		}
		return append(out, a.Unmatched...)
	}

	for _, roster := range []*profile.Roster{eventRoster(7), largeRoster(21)} {
		first := matchAll(t, roster, scoreFunc(pseudoScore), DefaultPolicy())
		second := matchAll(t, roster, scoreFunc(pseudoScore), DefaultPolicy())
		assert.Equal(t, ids(first), ids(second))
	}
}

func TestBuildMatrixIsSymmetric(t *testing.T) {
	t.Parallel()

	m, err := BuildMatrix(context.Background(), eventRoster(6), scoring.NewScorer(), 0)
	require.NoError(t, err)

	require.Equal(t, 6, m.Len())
	assert.Equal(t, "p01", m.Profiles[0].ID)
	for i := 0; i < m.Len(); i++ {
		assert.Zero(t, m.At(i, i))
		for j := 0; j < m.Len(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
		}
	}
	assert.Equal(t, 2, m.Index("p03"))
	assert.Equal(t, -1, m.Index("missing"))
}

func TestBuildMatrixHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildMatrix(ctx, eventRoster(4), scoring.NewScorer(), 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAssignRejectsTinyRoster(t *testing.T) {
	t.Parallel()

	m, err := NewMatrix([]*profile.Profile{person("solo", "", "", "")}, []float64{0})
	require.NoError(t, err)

	_, err = Assign(m, DefaultPolicy())
	require.ErrorIs(t, err, profile.ErrInvalidRoster)
}

func TestNewMatrixChecksShape(t *testing.T) {
	t.Parallel()

	_, err := NewMatrix([]*profile.Profile{person("a", "", "", ""), person("b", "", "", "")}, []float64{0, 1})
	require.Error(t, err)
}

func TestTiersAreMonotonic(t *testing.T) {
	t.Parallel()

	rank := map[Confidence]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}
	tiers := DefaultTiers()

	prev := -1
	for s := 0.0; s <= 1.0; s += 0.01 {
		r := rank[tiers.Classify(s)]
		require.GreaterOrEqual(t, r, prev)
		prev = r
	}

	assert.Equal(t, ConfidenceHigh, tiers.Classify(0.65))
	assert.Equal(t, ConfidenceMedium, tiers.Classify(0.5))
	assert.Equal(t, ConfidenceLow, tiers.Classify(0.49))
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{name: "inverted tiers", mutate: func(p *Policy) { p.Tiers = Tiers{High: 0.4, Medium: 0.6} }},
		{name: "quality bar over one", mutate: func(p *Policy) { p.QualityBar = 1.5 }},
		{name: "negative bonus", mutate: func(p *Policy) { p.QualityBonus = -0.1 }},
		{name: "exact limit too large", mutate: func(p *Policy) { p.ExactLimit = 40 }},
		{name: "low score negative", mutate: func(p *Policy) { p.LowScore = -1 }},
	}

	require.NoError(t, DefaultPolicy().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidPolicy))
		})
	}
}

func TestSummarizeCountsTiers(t *testing.T) {
	t.Parallel()

	a := &Assignment{
		Method: MethodExact,
		Matches: []*Match{
			{Score: 0.7, Confidence: ConfidenceHigh, RationaleSource: SourceAI},
			{Score: 0.4, Confidence: ConfidenceLow, Flags: []string{FlagLowScore}, RationaleSource: SourceFallback},
		},
		Unmatched: []string{"z"},
	}

	s := Summarize(a)
	assert.Equal(t, 5, s.TotalAttendees)
	assert.Equal(t, 2, s.TotalMatches)
	assert.Equal(t, 1, s.Unmatched)
	assert.InDelta(t, 0.55, s.AverageScore, 1e-9)
	assert.Equal(t, 1, s.Confidence[ConfidenceHigh])
	assert.Equal(t, 0, s.Confidence[ConfidenceMedium])
	assert.Equal(t, 1, s.LowScore)
	assert.Equal(t, 1, s.Fallbacks)
}
