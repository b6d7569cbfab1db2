package domain

import "time"

// Value is a payload observed on a topic.
// Payload is opaque: a scalar (string, number, bool) or a structured document
// (map or slice) as decoded by the tree store.
type Value struct {
	Payload    any       `json:"payload" yaml:"payload"`
	Retained   bool      `json:"retained,omitempty" yaml:"retained,omitempty"`
	ReceivedAt time.Time `json:"received_at" yaml:"received_at"`
}
