package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes a subprocess that publishes topic updates on stdout.
type FeedConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	// Retained marks every value from this feed as retained.
	Retained bool `yaml:"retained" json:"retained"`
}

// ConfigFile represents the structure of feeds.yaml
type ConfigFile struct {
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`
}

// LoadFeeds reads a configuration file (YAML or JSON). A missing file means no feeds.
func LoadFeeds(path string) ([]FeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read feeds config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	feeds := make([]FeedConfig, 0, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		if f.Command == "" {
			return nil, fmt.Errorf("feed %d (%s): command is required", i, f.Name)
		}
		if f.Name == "" {
			f.Name = f.Command
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}
