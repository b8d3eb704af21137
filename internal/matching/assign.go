package matching

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/spigell/meetmatch/internal/profile"
)

// Assignment methods.
const (
	MethodExact  = "exact"
	MethodGreedy = "greedy"
)

const (
	epsilon         = 1e-12
	maxSearchPasses = 64
)

// Assignment is the duplicate-free pairing of one roster.
type Assignment struct {
	Method    string    `json:"method"`
	Matches   []*Match  `json:"matches"`
	Unmatched []string  `json:"unmatched"`
	Warnings  []Warning `json:"warnings"`
}

type pair struct {
	i, j int
}

// Assign pairs the profiles of m so that total utility is maximal. Rosters up
// to policy.ExactLimit are solved exactly, larger ones greedily with a
// pair-swap local search. Every profile ends up in exactly one match except
// one when the roster is odd.
func Assign(m *Matrix, policy Policy) (*Assignment, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if m.Len() < profile.MinRosterSize {
		return nil, &profile.InputError{
			Index:  -1,
			Reason: fmt.Sprintf("at least %d profiles are required, got %d", profile.MinRosterSize, m.Len()),
		}
	}

	u := utilities(m, policy)

	var (
		pairs  []pair
		method string
	)
	if m.Len() <= policy.ExactLimit {
		pairs, method = exactPairs(u, m.Len()), MethodExact
	} else {
		pairs, method = greedyPairs(u, m.Len()), MethodGreedy
	}

	return buildAssignment(m, policy, pairs, method), nil
}

func utilities(m *Matrix, policy Policy) [][]float64 {
	n := m.Len()
	u := make([][]float64, n)
	for i := range u {
		u[i] = make([]float64, n)
		for j := range u[i] {
			if i != j {
				u[i][j] = policy.utility(m.At(i, j))
			}
		}
	}
	return u
}

// exactPairs solves maximum-weight perfect matching with a bitmask dynamic
// program. An odd roster gets a dummy vertex whose pairs are worth zero.
func exactPairs(u [][]float64, n int) []pair {
	size := n
	if size%2 == 1 {
		size++
	}
	weight := func(i, j int) float64 {
		if i >= n || j >= n {
			return 0
		}
		return u[i][j]
	}

	full := 1<<size - 1
	best := make([]float64, full+1)
	choice := make([]int8, full+1)
	best[full] = 0

	for mask := full - 1; mask >= 0; mask-- {
		best[mask] = math.Inf(-1)
		if bits.OnesCount(uint(mask))%2 == 1 {
			continue
		}
		i := bits.TrailingZeros(^uint(mask))
		for j := i + 1; j < size; j++ {
			if mask&(1<<j) != 0 {
				continue
			}
			next := mask | 1<<i | 1<<j
			if math.IsInf(best[next], -1) {
				continue
			}
			if v := weight(i, j) + best[next]; v > best[mask]+epsilon {
				best[mask] = v
				choice[mask] = int8(j)
			}
		}
	}

	var pairs []pair
	for mask := 0; mask != full; {
		i := bits.TrailingZeros(^uint(mask))
		j := int(choice[mask])
		if i < n && j < n {
			pairs = append(pairs, pair{i: i, j: j})
		}
		mask |= 1<<i | 1<<j
	}
	return pairs
}

// greedyPairs takes pairs by descending utility, ties by index, and then
// improves the result with pair swaps until no swap helps.
func greedyPairs(u [][]float64, n int) []pair {
	candidates := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			candidates = append(candidates, pair{i: i, j: j})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return u[candidates[a].i][candidates[a].j] > u[candidates[b].i][candidates[b].j]
	})

	used := make([]bool, n)
	var pairs []pair
	for _, c := range candidates {
		if used[c.i] || used[c.j] {
			continue
		}
		used[c.i], used[c.j] = true, true
		pairs = append(pairs, c)
	}

	free := -1
	for i, ok := range used {
		if !ok {
			free = i
			break
		}
	}

	improve(u, pairs, &free)

	for k := range pairs {
		pairs[k] = ordered(pairs[k].i, pairs[k].j)
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].i < pairs[b].i })

	return pairs
}

// improve applies the first improving move of each pass: re-pairing two
// pairs crosswise, or swapping the free profile into a pair.
func improve(u [][]float64, pairs []pair, free *int) {
	for pass := 0; pass < maxSearchPasses; pass++ {
		if !improveOnce(u, pairs, free) {
			return
		}
	}
}

func improveOnce(u [][]float64, pairs []pair, free *int) bool {
	for x := 0; x < len(pairs); x++ {
		a, b := pairs[x].i, pairs[x].j
		for y := x + 1; y < len(pairs); y++ {
			c, d := pairs[y].i, pairs[y].j
			current := u[a][b] + u[c][d]
			if u[a][c]+u[b][d] > current+epsilon {
				pairs[x], pairs[y] = pair{i: a, j: c}, pair{i: b, j: d}
				return true
			}
			if u[a][d]+u[b][c] > current+epsilon {
				pairs[x], pairs[y] = pair{i: a, j: d}, pair{i: b, j: c}
				return true
			}
		}

		if *free < 0 {
			continue
		}
		f := *free
		if u[f][b] > u[a][b]+epsilon {
			pairs[x], *free = pair{i: f, j: b}, a
			return true
		}
		if u[a][f] > u[a][b]+epsilon {
			pairs[x], *free = pair{i: a, j: f}, b
			return true
		}
	}
	return false
}

func ordered(i, j int) pair {
	if j < i {
		return pair{i: j, j: i}
	}
	return pair{i: i, j: j}
}

func buildAssignment(m *Matrix, policy Policy, pairs []pair, method string) *Assignment {
	a := &Assignment{
		Method:    method,
		Matches:   make([]*Match, 0, len(pairs)),
		Unmatched: []string{},
		Warnings:  []Warning{},
	}

	matched := make([]bool, m.Len())
	var lowIDs, belowIDs []string

	for _, p := range pairs {
		matched[p.i], matched[p.j] = true, true

		attendee, counterpart := m.Profiles[p.i], m.Profiles[p.j]
		score := m.At(p.i, p.j)
		match := &Match{
			AttendeeID:      attendee.ID,
			MatchID:         counterpart.ID,
			Attendee:        attendee.Name,
			MatchName:       counterpart.Name,
			AttendeeProfile: attendee,
			MatchProfile:    counterpart,
			Score:           score,
			Confidence:      policy.Tiers.Classify(score),
			WhatYouShare:    []string{},
			Icebreakers:     []string{},
		}
		if score < policy.LowScore {
			match.AddFlag(FlagLowScore)
			lowIDs = append(lowIDs, attendee.ID)
		}
		if score < policy.QualityBar {
			match.AddFlag(FlagBelowQualityBar)
			belowIDs = append(belowIDs, attendee.ID)
		}
		a.Matches = append(a.Matches, match)
	}

	for i, ok := range matched {
		if !ok {
			a.Unmatched = append(a.Unmatched, m.Profiles[i].ID)
		}
	}

	if len(a.Unmatched) > 0 {
		a.Warnings = append(a.Warnings, Warning{
			Code:       WarnOddRoster,
			ProfileIDs: a.Unmatched,
			Message:    fmt.Sprintf("roster of %d profiles is odd, %d left unmatched", m.Len(), len(a.Unmatched)),
		})
	}
	if len(lowIDs) > 0 {
		a.Warnings = append(a.Warnings, Warning{
			Code:       WarnLowScore,
			ProfileIDs: lowIDs,
			Message:    fmt.Sprintf("%d matches score below %.2f", len(lowIDs), policy.LowScore),
		})
	}
	if len(belowIDs) > 0 {
		a.Warnings = append(a.Warnings, Warning{
			Code:       WarnBelowQualityBar,
			ProfileIDs: belowIDs,
			Message:    fmt.Sprintf("%d matches score below the quality bar %.2f", len(belowIDs), policy.QualityBar),
		})
	}

	return a
}
