package matching

// Summary is the operator-facing statistics of one run.
type Summary struct {
	TotalAttendees int                `json:"totalAttendees"`
	TotalMatches   int                `json:"totalMatches"`
	Unmatched      int                `json:"unmatched"`
	AverageScore   float64            `json:"averageScore"`
	Confidence     map[Confidence]int `json:"confidence"`
	LowScore       int                `json:"lowScore"`
	Fallbacks      int                `json:"rationaleFallbacks"`
	Method         string             `json:"method"`
}

func Summarize(a *Assignment) Summary {
	s := Summary{
		TotalMatches: len(a.Matches),
		Unmatched:    len(a.Unmatched),
		Method:       a.Method,
		Confidence: map[Confidence]int{
			ConfidenceHigh:   0,
			ConfidenceMedium: 0,
			ConfidenceLow:    0,
		},
	}
	s.TotalAttendees = 2*s.TotalMatches + s.Unmatched

	var total float64
	for _, m := range a.Matches {
		total += m.Score
		s.Confidence[m.Confidence]++
		if m.HasFlag(FlagLowScore) {
			s.LowScore++
		}
		if m.RationaleSource == SourceFallback {
			s.Fallbacks++
		}
	}
	if s.TotalMatches > 0 {
		s.AverageScore = total / float64(s.TotalMatches)
	}

	return s
}
