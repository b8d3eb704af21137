package cmd

import (
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/meetmatch/internal/logger"
	"github.com/spigell/meetmatch/internal/profile"
	"github.com/spigell/meetmatch/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score <attendee-id> <attendee-id>",
	Short: "Print the full score breakdown of one pair",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runScore(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("roster", "r", "", "roster file with attendee profiles (json or yaml)")
}

type pairReport struct {
	Attendee       string            `json:"attendee"`
	Match          string            `json:"match"`
	Breakdown      scoring.Breakdown `json:"breakdown"`
	SharedSkills   []string          `json:"sharedSkills"`
	SharedDomains  []string          `json:"sharedDomains"`
	SharedRegion   string            `json:"sharedRegion,omitempty"`
	Seniority      [2]int            `json:"seniority"`
	Industries     [2][]string       `json:"industries"`
	CareerStages   [2]string         `json:"careerStages"`
	StageAlignment float64           `json:"stageAlignment"`
}

func runScore(cmd *cobra.Command, idA, idB string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	path := config.Roster
	if flag, _ := cmd.Flags().GetString("roster"); strings.TrimSpace(flag) != "" {
		path = flag
	}

	roster, err := profile.Load(path)
	if err != nil {
		logger.Fatal("loading the roster", zap.Error(err))
	}

	a, b := roster.FindByID(idA), roster.FindByID(idB)
	if a == nil || b == nil {
		logger.Fatal("attendee not found in the roster",
			zap.Strings("requested", []string{idA, idB}),
			zap.Int("attendees", roster.Len()),
		)
	}

	report := pairReport{
		Attendee:       a.Name,
		Match:          b.Name,
		Breakdown:      scoring.NewScorer().Breakdown(a, b),
		SharedSkills:   nonNilStrings(scoring.SharedSkills(a, b)),
		SharedDomains:  nonNilStrings(scoring.SharedDomains(a, b)),
		SharedRegion:   scoring.SharedRegion(a, b),
		Seniority:      [2]int{scoring.Seniority(a), scoring.Seniority(b)},
		Industries:     [2][]string{scoring.Industries(a), scoring.Industries(b)},
		CareerStages:   [2]string{string(scoring.Stage(a)), string(scoring.Stage(b))},
		StageAlignment: scoring.StageAlignment(a, b),
	}

	if err := writeJSON("", report); err != nil {
		logger.Fatal("writing the breakdown", zap.Error(err))
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
