package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/matching"
	"github.com/spigell/meetmatch/internal/profile"
)

// Stage is one step of a matching run.
type Stage interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, deps Deps, s *State) (Step, error)
}

// Deps aggregates dependencies shared across all stages.
type Deps struct {
	Logger *zap.Logger
}

// State is what the stages work on. Each stage fills in its part.
type State struct {
	RunID      string
	StartedAt  time.Time
	Roster     *profile.Roster
	Matrix     *matching.Matrix
	Assignment *matching.Assignment
}

func NewState(runID string, roster *profile.Roster) *State {
	return &State{RunID: runID, StartedAt: time.Now().UTC(), Roster: roster}
}

// Warnings returns the warnings collected so far.
func (s *State) Warnings() []matching.Warning {
	if s.Assignment == nil {
		return nil
	}
	return s.Assignment.Warnings
}

// Step describes the result of executing a stage.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a stage.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// DisableByName marks a stage with the provided name as disabled while keeping it in the list.
func DisableByName(stages []Stage, name, reason string) {
	for _, stage := range stages {
		if stage.Name() == name {
			stage.Disable(reason)
		}
	}
}

// Run validates every enabled stage, then applies them in order. The first
// failing stage stops the run.
func Run(ctx context.Context, deps Deps, stages []Stage, s *State) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, stage := range stages {
		if !stage.IsEnabled() {
			continue
		}
		if err := stage.Validate(); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}

	for _, stage := range stages {
		if !stage.IsEnabled() {
			deps.Logger.Info("stage disabled", zap.String("name", stage.Name()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		info, err := stage.Apply(ctx, deps, s)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		deps.Logger.Info("pipeline step",
			zap.String("name", stage.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
	}

	return nil
}

// Describe returns status entries for the provided stages.
func Describe(stages []Stage) []Status {
	statuses := make([]Status, 0, len(stages))
	for _, stage := range stages {
		if reporter, ok := stage.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    stage.Name(),
			Enabled: stage.IsEnabled(),
		})
	}
	return statuses
}
