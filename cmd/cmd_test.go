package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/matching"
	"github.com/spigell/meetmatch/internal/pipeline"
	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/telemetry"
)

func TestGetConfigKeepsDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader(`
roster: attendees.json
matching:
  quality-bar: 0.75
  confidence:
    high: 0.7
rationale:
  timeout: 5s
  tone: Calm
archive:
  enabled: true
`)))

	config, err := getConfig()
	require.NoError(t, err)

	assert.Equal(t, "attendees.json", config.Roster)
	assert.Equal(t, 0.75, config.Matching.QualityBar)
	assert.Equal(t, 0.1, config.Matching.QualityBonus)
	assert.Equal(t, 18, config.Matching.ExactLimit)
	assert.Equal(t, 0.7, config.Matching.Tiers.High)
	assert.Equal(t, 0.5, config.Matching.Tiers.Medium)

	assert.True(t, config.Rationale.Enabled)
	assert.Equal(t, 5*time.Second, config.Rationale.Timeout)
	assert.Equal(t, "Calm", config.Rationale.Tone)

	assert.Equal(t, "gemini", config.AI.Provider)
	assert.Equal(t, 3, config.AI.Gemini.MaxRetries)
	assert.True(t, config.Archive.Enabled)
	assert.Equal(t, "meetmatch.db", config.Archive.Path)
}

func TestGetConfigWithoutFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	config, err := getConfig()
	require.NoError(t, err)
	assert.Equal(t, matching.DefaultPolicy(), config.Matching.Policy)
	assert.False(t, config.Archive.Enabled)
	assert.False(t, config.Telemetry.Enabled)
}

func TestWriteConfidenceReport(t *testing.T) {
	matches := []*matching.Match{
		{Attendee: "Ana", MatchName: "Ben", Score: 0.55, Confidence: matching.ConfidenceMedium},
		{Attendee: "Cy", MatchName: "Di", Score: 0.81, Confidence: matching.ConfidenceHigh},
		{Attendee: "Ed", MatchName: "Flo", Score: 0.42, Confidence: matching.ConfidenceLow, Flags: []string{matching.FlagLowScore}},
		{Attendee: "Gus", MatchName: "Hal", Score: 0.66, Confidence: matching.ConfidenceHigh},
	}

	var buf bytes.Buffer
	writeConfidenceReport(&buf, matches)

	want := strings.Join([]string{
		"High (2)",
		"  0.810  Cy <> Di",
		"  0.660  Gus <> Hal",
		"Medium (1)",
		"  0.550  Ana <> Ben",
		"Low (1)",
		"  0.420  Ed <> Flo  [low_score]",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestNewReportNeverNil(t *testing.T) {
	r := newReport("run", &matching.Assignment{Method: matching.MethodExact})
	assert.NotNil(t, r.Unmatched)
	assert.NotNil(t, r.Warnings)
	assert.Equal(t, matching.MethodExact, r.Summary.Method)
}

type fakeStructurer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeStructurer) Structure(_ context.Context, source, text string) (*profile.Profile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, source)
	f.mu.Unlock()

	if strings.Contains(text, "broken") {
		return nil, errors.New("model returned garbage")
	}
	name := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	return &profile.Profile{ID: "ignored", Name: name}, nil
}

func TestStructureAll(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("a.txt", "Ana Lima\nEngineer")
	write("b.txt", "broken resume")
	write("c.TXT", "Cy Park\nFounder")
	write("notes.md", "not a resume")

	files, err := resumeFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	structurer := &fakeStructurer{}
	roster, err := structureAll(context.Background(), structurer, files, 0, zap.NewNop())
	require.NoError(t, err)

	require.Equal(t, 2, roster.Len())
	assert.Equal(t, "Ana Lima", roster.Items[0].Name)
	assert.Equal(t, "Cy Park", roster.Items[1].Name)
	for _, p := range roster.Items {
		assert.True(t, strings.HasPrefix(p.ID, "profile-"), p.ID)
	}
	assert.NotEqual(t, roster.Items[0].ID, roster.Items[1].ID)
	assert.Len(t, structurer.calls, 3)
}

func TestStructureAllCancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Ana"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("Ben"), 0o600))

	files, err := resumeFiles(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = structureAll(ctx, &fakeStructurer{}, files, 1, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchRunReportsMetrics(t *testing.T) {
	ctx := context.Background()
	provider := telemetry.Init()
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	config := defaultConfig()
	config.Rationale.Enabled = false

	stages, closeArchive := prepareStages(ctx, config, zap.NewNop())
	defer closeArchive()

	statuses := pipeline.Describe(stages)
	require.Len(t, statuses, 5)
	assert.Equal(t, string(pipeline.AIDisabled), statuses[3].Details["ai"])

	var people []*profile.Profile
	for _, id := range []string{"a", "b", "c", "d"} {
		p := &profile.Profile{ID: id, Name: "Attendee " + id, Title: "Software Engineer", Skills: []string{"Go"}}
		p.Normalize()
		people = append(people, p)
	}
	state := pipeline.NewState("run-metrics", profile.NewRoster(people...))
	require.NoError(t, pipeline.Run(ctx, pipeline.Deps{}, stages, state))

	result := newReport(state.RunID, state.Assignment)
	attachMetrics(ctx, provider, result, zap.NewNop())

	require.NotNil(t, result.Metrics)
	assert.Equal(t, 6.0, result.Metrics["meetmatch_pairs_scored_total"])
	assert.Equal(t, 2.0, result.Metrics["meetmatch_matches_total"])
	assert.Equal(t, 2.0, result.Metrics["meetmatch_rationale_fallback_total"])
	assert.Equal(t, 2.0, result.Metrics["meetmatch_match_score_count"])
}

func TestAttachMetricsWithoutProvider(t *testing.T) {
	result := newReport("run", &matching.Assignment{})
	attachMetrics(context.Background(), nil, result, zap.NewNop())
	assert.Nil(t, result.Metrics)
}
