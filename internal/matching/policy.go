package matching

import (
	"errors"
	"fmt"
)

// Confidence is the coarse tier of a match score.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Tiers maps scores to confidence: High at or above High, Medium at or above
// Medium, Low otherwise.
type Tiers struct {
	High   float64 `mapstructure:"high"`
	Medium float64 `mapstructure:"medium"`
}

// DefaultTiers are calibrated to the scorer's reachable range, roughly 0.21
// to 0.82, so the High band stays attainable.
func DefaultTiers() Tiers {
	return Tiers{High: 0.65, Medium: 0.50}
}

func (t Tiers) Validate() error {
	if t.Medium < 0 || t.High > 1 || t.Medium > t.High {
		return fmt.Errorf("confidence tiers must satisfy 0 <= medium <= high <= 1, got medium=%.2f high=%.2f", t.Medium, t.High)
	}
	return nil
}

func (t Tiers) Classify(score float64) Confidence {
	switch {
	case score >= t.High:
		return ConfidenceHigh
	case score >= t.Medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Policy tunes the assignment.
type Policy struct {
	// QualityBar is the score from which a pair earns QualityBonus utility.
	QualityBar   float64 `mapstructure:"quality-bar"`
	QualityBonus float64 `mapstructure:"quality-bonus"`
	// LowScore flags matches scoring under it.
	LowScore float64 `mapstructure:"low-score"`
	// ExactLimit is the largest roster solved exactly.
	ExactLimit int   `mapstructure:"exact-limit"`
	Tiers      Tiers `mapstructure:"confidence"`
}

const maxExactLimit = 22

func DefaultPolicy() Policy {
	return Policy{
		QualityBar:   0.7,
		QualityBonus: 0.1,
		LowScore:     0.6,
		ExactLimit:   18,
		Tiers:        DefaultTiers(),
	}
}

var ErrInvalidPolicy = errors.New("invalid matching policy")

func (p Policy) Validate() error {
	if p.QualityBar < 0 || p.QualityBar > 1 {
		return fmt.Errorf("%w: quality-bar %.2f is outside [0,1]", ErrInvalidPolicy, p.QualityBar)
	}
	if p.QualityBonus < 0 {
		return fmt.Errorf("%w: quality-bonus must not be negative", ErrInvalidPolicy)
	}
	if p.LowScore < 0 || p.LowScore > 1 {
		return fmt.Errorf("%w: low-score %.2f is outside [0,1]", ErrInvalidPolicy, p.LowScore)
	}
	if p.ExactLimit < 0 || p.ExactLimit > maxExactLimit {
		return fmt.Errorf("%w: exact-limit must be within [0,%d]", ErrInvalidPolicy, maxExactLimit)
	}
	if err := p.Tiers.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	return nil
}

func (p Policy) utility(score float64) float64 {
	if score >= p.QualityBar {
		return score + p.QualityBonus
	}
	return score
}
