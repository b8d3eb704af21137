package profile

import (
	"sort"
	"strings"
)

// Profile is the structured attendee record consumed by scoring.
type Profile struct {
	ID             string   `json:"id" yaml:"id" mapstructure:"id"`
	Name           string   `json:"name" yaml:"name" mapstructure:"name"`
	Title          string   `json:"title" yaml:"title" mapstructure:"title"`
	Company        string   `json:"company" yaml:"company" mapstructure:"company"`
	Location       string   `json:"location" yaml:"location" mapstructure:"location"`
	Skills         []string `json:"skills" yaml:"skills" mapstructure:"skills"`
	Certifications []string `json:"certifications" yaml:"certifications" mapstructure:"certifications"`
	Experience     []string `json:"experience" yaml:"experience" mapstructure:"experience"`
	Interests      []string `json:"interests" yaml:"interests" mapstructure:"interests"`
	Goal           string   `json:"goal" yaml:"goal" mapstructure:"goal"`
	Email          string   `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
	LinkedIn       string   `json:"linkedin,omitempty" yaml:"linkedin,omitempty" mapstructure:"linkedin"`
}

// Normalize trims scalar fields and replaces nil lists with empty ones.
func (p *Profile) Normalize() {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Title = strings.TrimSpace(p.Title)
	p.Company = strings.TrimSpace(p.Company)
	p.Location = strings.TrimSpace(p.Location)
	p.Goal = strings.TrimSpace(p.Goal)

	p.Skills = nonNil(p.Skills)
	p.Certifications = nonNil(p.Certifications)
	p.Experience = nonNil(p.Experience)
	p.Interests = nonNil(p.Interests)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Roster is the ordered set of attendees for one matching run.
type Roster struct {
	Items []*Profile `json:"profiles" yaml:"profiles"`
}

func NewRoster(items ...*Profile) *Roster {
	return &Roster{Items: items}
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

func (r *Roster) IDs() []string {
	ids := make([]string, 0, r.Len())
	for _, p := range r.Items {
		ids = append(ids, p.ID)
	}
	return ids
}

func (r *Roster) FindByID(id string) *Profile {
	for _, p := range r.Items {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SortedByID returns a copy of the roster items ordered by id. The matching
// engine relies on this order for deterministic tie breaking.
func (r *Roster) SortedByID() []*Profile {
	sorted := make([]*Profile, r.Len())
	copy(sorted, r.Items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Exclude removes profiles whose ids are listed in targets and returns the
// removed ids. Roster order is preserved.
func (r *Roster) Exclude(targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	drop := make(map[string]struct{}, len(targets))
	for _, id := range targets {
		drop[strings.TrimSpace(id)] = struct{}{}
	}

	var excluded []string
	kept := r.Items[:0]
	for _, p := range r.Items {
		if _, ok := drop[p.ID]; ok {
			excluded = append(excluded, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	r.Items = kept

	return excluded
}
