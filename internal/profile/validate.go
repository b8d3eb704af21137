package profile

import (
	"errors"
	"fmt"
)

// MinRosterSize is the smallest roster a matching run accepts.
const MinRosterSize = 2

// ErrInvalidRoster is matched by every InputError via errors.Is.
var ErrInvalidRoster = errors.New("invalid roster")

// InputError reports a roster that cannot be matched at all.
type InputError struct {
	ProfileID string
	Index     int
	Reason    string
}

func (e *InputError) Error() string {
	if e.ProfileID != "" {
		return fmt.Sprintf("%s: profile %q: %s", ErrInvalidRoster, e.ProfileID, e.Reason)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s: profile #%d: %s", ErrInvalidRoster, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRoster, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidRoster
}

// Validate checks the structural invariants of a single profile.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return &InputError{Index: -1, Reason: "id is required"}
	}
	if p.Name == "" {
		return &InputError{ProfileID: p.ID, Index: -1, Reason: "name is required"}
	}
	return nil
}

// Validate checks roster size, per-profile invariants and id uniqueness.
func (r *Roster) Validate() error {
	if r.Len() < MinRosterSize {
		return &InputError{
			Index:  -1,
			Reason: fmt.Sprintf("at least %d profiles are required, got %d", MinRosterSize, r.Len()),
		}
	}

	seen := make(map[string]int, r.Len())
	for idx, p := range r.Items {
		if p == nil {
			return &InputError{Index: idx, Reason: "profile is empty"}
		}
		if err := p.Validate(); err != nil {
			var inputErr *InputError
			if errors.As(err, &inputErr) && inputErr.ProfileID == "" {
				inputErr.Index = idx
			}
			return err
		}
		if first, ok := seen[p.ID]; ok {
			return &InputError{
				ProfileID: p.ID,
				Index:     idx,
				Reason:    fmt.Sprintf("duplicate id, first seen at #%d", first),
			}
		}
		seen[p.ID] = idx
	}

	return nil
}
