package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/archive"
	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/matching"
	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/telemetry"
)

// Stage names.
const (
	StageExcludeFile = "exclude_file"
	StageScore       = "score"
	StageAssign      = "assign"
	StageRationale   = "rationale"
	StageArchive     = "archive"
)

var errNoMatches = errors.New("no assignment to work on")

type excludeFileStage struct {
	path string
}

// NewExcludeFile creates a stage that removes attendees listed in an exclusion file.
func NewExcludeFile(path string) Stage {
	return &excludeFileStage{path: strings.TrimSpace(path)}
}

func (f *excludeFileStage) Name() string { return StageExcludeFile }

func (f *excludeFileStage) Disable(string) {}

func (f *excludeFileStage) IsEnabled() bool { return true }

func (f *excludeFileStage) Validate() error { return nil }

func (f *excludeFileStage) Apply(_ context.Context, deps Deps, s *State) (Step, error) {
	initial := s.Roster.Len()
	if f.path == "" {
		return Step{Initial: initial, Left: initial}, nil
	}

	excluded, err := profile.GetExclusionsFromFile(f.path)
	if err != nil {
		return Step{}, fmt.Errorf("getting exclusions from file: %w", err)
	}

	removed := s.Roster.Exclude(excluded.IDs())
	if len(removed) > 0 {
		deps.Logger.Info("excluding attendees based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_attendees", removed),
			zap.Int("attendees_left", s.Roster.Len()),
		)
	}

	return Step{Initial: initial, Dropped: len(removed), Left: s.Roster.Len()}, nil
}

func (f *excludeFileStage) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type scoreStage struct {
	scorer  matching.PairScorer
	workers int
}

// NewScore creates the stage that validates the roster and builds the score matrix.
func NewScore(scorer matching.PairScorer, workers int) Stage {
	return &scoreStage{scorer: scorer, workers: workers}
}

func (f *scoreStage) Name() string { return StageScore }

func (f *scoreStage) Disable(string) {}

func (f *scoreStage) IsEnabled() bool { return true }

func (f *scoreStage) Validate() error {
	if f.scorer == nil {
		return fmt.Errorf("scorer is required")
	}
	return nil
}

func (f *scoreStage) Apply(ctx context.Context, _ Deps, s *State) (Step, error) {
	if err := s.Roster.Validate(); err != nil {
		return Step{}, err
	}

	m, err := matching.BuildMatrix(ctx, s.Roster, f.scorer, f.workers)
	if err != nil {
		return Step{}, err
	}
	s.Matrix = m

	return Step{Initial: m.Len(), Left: m.Len()}, nil
}

func (f *scoreStage) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{
		"workers": strconv.Itoa(f.workers),
	}}
}

type assignStage struct {
	policy matching.Policy
}

// NewAssign creates the stage that pairs the scored roster.
func NewAssign(policy matching.Policy) Stage {
	return &assignStage{policy: policy}
}

func (f *assignStage) Name() string { return StageAssign }

func (f *assignStage) Disable(string) {}

func (f *assignStage) IsEnabled() bool { return true }

func (f *assignStage) Validate() error { return f.policy.Validate() }

func (f *assignStage) Apply(ctx context.Context, deps Deps, s *State) (Step, error) {
	if s.Matrix == nil {
		return Step{}, fmt.Errorf("score matrix is missing")
	}

	a, err := matching.Assign(s.Matrix, f.policy)
	if err != nil {
		return Step{}, err
	}
	s.Assignment = a

	metrics := telemetry.Default()
	for _, m := range a.Matches {
		metrics.ObserveMatch(ctx, m.Score, string(m.Confidence))
	}
	for _, w := range a.Warnings {
		deps.Logger.Warn("assignment warning",
			zap.String("code", w.Code),
			zap.Strings("profiles", w.ProfileIDs),
			zap.String("message", w.Message),
		)
	}

	initial := s.Matrix.Len()
	return Step{Initial: initial, Dropped: len(a.Unmatched), Left: 2 * len(a.Matches)}, nil
}

func (f *assignStage) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{
		"quality_bar": strconv.FormatFloat(f.policy.QualityBar, 'f', -1, 64),
		"exact_limit": strconv.Itoa(f.policy.ExactLimit),
	}}
}

// Attacher fills in match rationales.
type Attacher interface {
	Attach(ctx context.Context, matches []*matching.Match) ([]matching.Warning, error)
}

// AIMode tells whether rationale requests reach a model, and if not, why.
type AIMode string

const (
	AIEnabled     AIMode = "enabled"
	AIDisabled    AIMode = "disabled"
	AIUnavailable AIMode = "unavailable"
)

type rationaleStage struct {
	enabled  bool
	reason   string
	attacher Attacher
	ai       AIMode
}

// NewRationale creates the stage that explains every match. The AI mode is
// only reported in the status.
func NewRationale(attacher Attacher, mode AIMode) Stage {
	return &rationaleStage{enabled: true, attacher: attacher, ai: mode}
}

func (f *rationaleStage) Name() string { return StageRationale }

func (f *rationaleStage) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *rationaleStage) IsEnabled() bool { return f.enabled }

func (f *rationaleStage) Validate() error {
	if f.attacher == nil {
		return fmt.Errorf("rationale attacher is not initialized")
	}
	return nil
}

func (f *rationaleStage) Apply(ctx context.Context, _ Deps, s *State) (Step, error) {
	if s.Assignment == nil {
		return Step{}, errNoMatches
	}

	warnings, err := f.attacher.Attach(ctx, s.Assignment.Matches)
	if err != nil {
		return Step{}, err
	}
	s.Assignment.Warnings = append(s.Assignment.Warnings, warnings...)

	n := len(s.Assignment.Matches)
	return Step{Initial: n, Left: n}, nil
}

func (f *rationaleStage) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason, Details: map[string]string{
		"ai": string(f.ai),
	}}
}

// RunSaver persists finished runs.
type RunSaver interface {
	SaveRun(ctx context.Context, run *archive.Run) error
}

type archiveStage struct {
	enabled bool
	reason  string
	saver   RunSaver
}

// NewArchive creates the stage that stores the run. A nil saver disables it.
func NewArchive(saver RunSaver) Stage {
	if saver == nil {
		return &archiveStage{reason: "archive is not enabled"}
	}
	return &archiveStage{enabled: true, saver: saver}
}

func (f *archiveStage) Name() string { return StageArchive }

func (f *archiveStage) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *archiveStage) IsEnabled() bool { return f.enabled }

func (f *archiveStage) Validate() error { return nil }

func (f *archiveStage) Apply(ctx context.Context, deps Deps, s *State) (Step, error) {
	if s.Assignment == nil {
		return Step{}, errNoMatches
	}

	run := &archive.Run{
		ID:        s.RunID,
		CreatedAt: s.StartedAt,
		Summary:   matching.Summarize(s.Assignment),
		Warnings:  s.Assignment.Warnings,
		Matches:   s.Assignment.Matches,
	}
	if err := f.saver.SaveRun(ctx, run); err != nil {
		return Step{}, fmt.Errorf("save run: %w", err)
	}

	deps.Logger.Info("run archived", zap.String(logger.FieldRun, s.RunID))

	n := len(s.Assignment.Matches)
	return Step{Initial: n, Left: n}, nil
}

func (f *archiveStage) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}
