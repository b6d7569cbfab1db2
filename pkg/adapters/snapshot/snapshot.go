// Package snapshot loads a topic tree from a recorded list of messages in YAML
// or JSON, and can reload it when the file changes.
//
// A snapshot file looks like:
//
//	messages:
//	  - topic: home/bedroom/lamp
//	    payload: "ON"
//	    retained: false
//	    at: 2024-05-01T12:00:00Z
//
// Messages are applied in file order.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/tree"
	"gopkg.in/yaml.v3"
)

// Message is one recorded publication.
type Message struct {
	Topic    string    `yaml:"topic" json:"topic"`
	Payload  any       `yaml:"payload" json:"payload"`
	Retained bool      `yaml:"retained" json:"retained"`
	At       time.Time `yaml:"at" json:"at"`
}

// File is the on-disk layout.
type File struct {
	Messages []Message `yaml:"messages" json:"messages"`
}

// Format of a snapshot document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor guesses the format from the file extension, defaulting to YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a snapshot document.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse json snapshot: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse yaml snapshot: %w", err)
		}
	}

	for i, m := range f.Messages {
		if m.Topic == "" {
			return nil, fmt.Errorf("message %d: topic is required", i)
		}
	}
	return &f, nil
}

// Build applies the messages to a new tree. Messages without a timestamp get now.
func (f *File) Build(opts ...tree.Option) *tree.Tree {
	t := tree.New(opts...)
	now := time.Now()
	for _, m := range f.Messages {
		at := m.At
		if at.IsZero() {
			at = now
		}
		t.Update(m.Topic, m.Payload, m.Retained, at)
	}
	return t
}

// Load reads and builds the snapshot at path.
func Load(path string, opts ...tree.Option) (*tree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	f, err := Decode(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.Build(opts...), nil
}

// Encode renders a tree's current history back into snapshot form, oldest first per topic.
func Encode(t *tree.Tree, format Format) ([]byte, error) {
	var f File
	t.Walk(func(n tree.Node) bool {
		for _, v := range n.History() {
			f.Messages = append(f.Messages, Message{
				Topic:    n.Path(),
				Payload:  v.Payload,
				Retained: v.Retained,
				At:       v.ReceivedAt.UTC(),
			})
		}
		return true
	})

	if format == FormatJSON {
		return json.MarshalIndent(f, "", "  ")
	}
	return yaml.Marshal(f)
}
