package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spigell/meetmatch/internal/matching"
)

// report is the document printed by the match and history commands.
type report struct {
	RunID     string             `json:"runId"`
	Method    string             `json:"method,omitempty"`
	Matches   []*matching.Match  `json:"matches"`
	Unmatched []string           `json:"unmatched"`
	Warnings  []matching.Warning `json:"warnings"`
	Summary   matching.Summary   `json:"summary"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

func newReport(runID string, a *matching.Assignment) *report {
	r := &report{
		RunID:     runID,
		Method:    a.Method,
		Matches:   a.Matches,
		Unmatched: a.Unmatched,
		Warnings:  a.Warnings,
		Summary:   matching.Summarize(a),
	}
	if r.Unmatched == nil {
		r.Unmatched = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []matching.Warning{}
	}
	return r
}

// writeJSON writes v indented to path, or to stdout when path is empty or "-".
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func dumpToTmpFile(v any) (string, error) {
	f, err := os.CreateTemp("", app+"-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// writeConfidenceReport prints matches grouped by confidence tier, best tier
// first and best score first within a tier.
func writeConfidenceReport(w io.Writer, matches []*matching.Match) {
	tiers := []matching.Confidence{matching.ConfidenceHigh, matching.ConfidenceMedium, matching.ConfidenceLow}
	byTier := make(map[matching.Confidence][]*matching.Match)
	for _, m := range matches {
		byTier[m.Confidence] = append(byTier[m.Confidence], m)
	}

	for _, tier := range tiers {
		list := byTier[tier]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Score > list[j].Score })

		fmt.Fprintf(w, "%s (%d)\n", tier, len(list))
		for _, m := range list {
			line := fmt.Sprintf("  %.3f  %s <> %s", m.Score, m.Attendee, m.MatchName)
			if len(m.Flags) > 0 {
				line += "  [" + strings.Join(m.Flags, ", ") + "]"
			}
			fmt.Fprintln(w, line)
		}
	}
}
