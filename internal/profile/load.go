package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a roster file. JSON files may hold either a bare array of
// profiles or an object with a "profiles" key; .yaml and .yml files are
// decoded the same way with yaml.v3. Loaded profiles are normalized.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}

	roster, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse roster %q: %w", path, err)
	}

	return roster, nil
}

// Decode parses roster bytes, picking the format by file extension.
func Decode(data []byte, ext string) (*Roster, error) {
	var (
		items []*Profile
		err   error
	)

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		items, err = decodeYAML(data)
	default:
		items, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range items {
		if p != nil {
			p.Normalize()
		}
	}

	return &Roster{Items: items}, nil
}

func decodeJSON(data []byte) ([]*Profile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []*Profile
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapped Roster
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

func decodeYAML(data []byte) ([]*Profile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	if node.Content[0].Kind == yaml.SequenceNode {
		var items []*Profile
		if err := node.Decode(&items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapped Roster
	if err := node.Decode(&wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

// Encode writes the roster as an indented JSON array.
func (r *Roster) Encode() ([]byte, error) {
	items := r.Items
	if items == nil {
		items = []*Profile{}
	}
	return json.MarshalIndent(items, "", "  ")
}
