package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// rosterFile is the YAML roster layout:
//
//	streamers:
//	  - shroud
//	  - Kephrii
type rosterFile struct {
	Streamers []string `yaml:"streamers"`
}

// LoadRosterFile reads streamer logins from a YAML roster file.
func LoadRosterFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	var parsed rosterFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse roster file %q: %w", path, err)
	}
	return parsed.Streamers, nil
}

// mergeRoster trims entries and drops blanks and case-insensitive duplicates,
// keeping the first spelling seen.
func mergeRoster(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, name := range list {
			name = strings.TrimPrefix(strings.TrimSpace(name), "@")
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
