package matching

import (
	"github.com/spigell/meetmatch/internal/profile"
)

// Flags attached to individual matches.
const (
	FlagLowScore          = "low_score"
	FlagBelowQualityBar   = "below_quality_bar"
	FlagRationaleFallback = "rationale_fallback"
)

// Rationale sources.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Match pairs an attendee with a counterpart. The attendee is the profile
// with the smaller id.
type Match struct {
	AttendeeID      string           `json:"attendeeId"`
	MatchID         string           `json:"matchId"`
	Attendee        string           `json:"attendee"`
	MatchName       string           `json:"match"`
	AttendeeProfile *profile.Profile `json:"attendeeProfile"`
	MatchProfile    *profile.Profile `json:"matchProfile"`
	Score           float64          `json:"matchScore"`
	Confidence      Confidence       `json:"matchConfidence"`
	WhatYouShare    []string         `json:"whatYouShare"`
	Icebreakers     []string         `json:"icebreakers"`
	RationaleSource string           `json:"rationaleSource,omitempty"`
	Flags           []string         `json:"flags,omitempty"`
}

func (m *Match) HasFlag(flag string) bool {
	for _, f := range m.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func (m *Match) AddFlag(flag string) {
	if !m.HasFlag(flag) {
		m.Flags = append(m.Flags, flag)
	}
}

// Warning codes.
const (
	WarnOddRoster         = "odd_roster"
	WarnLowScore          = "low_score"
	WarnBelowQualityBar   = "below_quality_bar"
	WarnRationaleFallback = "rationale_fallback"
)

// Warning reports an assignment shortfall. Warnings never fail a run.
type Warning struct {
	Code       string   `json:"code"`
	ProfileIDs []string `json:"profileIds,omitempty"`
	Message    string   `json:"message"`
}
