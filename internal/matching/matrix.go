package matching

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/telemetry"
)

// PairScorer scores one unordered pair. Implementations must be safe for
// concurrent use.
type PairScorer interface {
	Score(a, b *profile.Profile) float64
}

// Matrix holds the symmetric score of every pair, with profiles ordered by id.
type Matrix struct {
	Profiles []*profile.Profile
	scores   []float64
}

func (m *Matrix) Len() int {
	return len(m.Profiles)
}

func (m *Matrix) At(i, j int) float64 {
	return m.scores[i*len(m.Profiles)+j]
}

// Index returns the position of the profile id, or -1.
func (m *Matrix) Index(id string) int {
	for i, p := range m.Profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// NewMatrix wraps precomputed scores. scores must be n*n and symmetric.
func NewMatrix(profiles []*profile.Profile, scores []float64) (*Matrix, error) {
	n := len(profiles)
	if len(scores) != n*n {
		return nil, fmt.Errorf("score matrix has %d cells, want %d", len(scores), n*n)
	}
	return &Matrix{Profiles: profiles, scores: scores}, nil
}

// BuildMatrix scores every pair of the roster with a bounded pool of workers,
// one task per row. workers <= 0 uses GOMAXPROCS.
func BuildMatrix(ctx context.Context, roster *profile.Roster, scorer PairScorer, workers int) (*Matrix, error) {
	profiles := roster.SortedByID()
	n := len(profiles)
	scores := make([]float64, n*n)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Row i owns cells (i,j) and (j,i) for every j > i.
			for j := i + 1; j < n; j++ {
				s := scorer.Score(profiles[i], profiles[j])
				scores[i*n+j] = s
				scores[j*n+i] = s
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build score matrix: %w", err)
	}

	telemetry.Default().PairsScored.Add(ctx, int64(n*(n-1)/2))

	return &Matrix{Profiles: profiles, scores: scores}, nil
}
