package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Exclusions lists attendees that must not be matched in a run (opt-outs,
// event staff, no-shows).
type Exclusions struct {
	Items []*Exclusion `json:"items" yaml:"items"`
}

type Exclusion struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// GetExclusionsFromFile reads an exclusion file. An empty file yields an
// empty list.
func GetExclusionsFromFile(path string) (*Exclusions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return &Exclusions{}, nil
	}

	var excluded Exclusions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &excluded)
	default:
		err = json.Unmarshal(data, &excluded)
	}
	if err != nil {
		return nil, err
	}

	return &excluded, nil
}

func (e *Exclusions) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Items)
}

// IDs returns the trimmed ids, skipping null entries and blank ids.
func (e *Exclusions) IDs() []string {
	ids := make([]string, 0, e.Len())
	if e == nil {
		return ids
	}
	for _, item := range e.Items {
		if item == nil {
			continue
		}
		if id := strings.TrimSpace(item.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
