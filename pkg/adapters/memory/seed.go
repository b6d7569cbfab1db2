package memory

import (
	"sort"
	"time"

	"github.com/aretw0/canopy/pkg/tree"
)

// Message is a single observed publication.
type Message struct {
	Topic    string
	Payload  any
	Retained bool
	At       time.Time
}

// NewTree builds a tree by applying messages in order.
func NewTree(messages []Message, opts ...tree.Option) *tree.Tree {
	t := tree.New(opts...)
	for _, m := range messages {
		at := m.At
		if at.IsZero() {
			at = time.Now()
		}
		t.Update(m.Topic, m.Payload, m.Retained, at)
	}
	return t
}

// NewTreeFromMap builds a tree from topic/payload pairs as retained values.
// Topics are applied in lexical order so the result is deterministic.
func NewTreeFromMap(values map[string]any, opts ...tree.Option) *tree.Tree {
	topics := make([]string, 0, len(values))
	for topic := range values {
		topics = append(topics, topic)
	}
	sort.Strings(topics) // Deterministic order

	now := time.Now()
	msgs := make([]Message, len(topics))
	for i, topic := range topics {
		msgs[i] = Message{Topic: topic, Payload: values[topic], Retained: true, At: now}
	}
	return NewTree(msgs, opts...)
}

// Demo returns a small home-automation tree, used when no snapshot is configured.
func Demo() *tree.Tree {
	base := time.Now().Add(-10 * time.Minute).UTC().Truncate(time.Second)
	msgs := []Message{
		{Topic: "home/bedroom/lamp", Payload: "OFF", At: base},
		{Topic: "home/bedroom/sensor", Payload: "21.9", Retained: true, At: base},
		{Topic: "home/bedroom/lamp", Payload: "ON", At: base.Add(2 * time.Minute)},
		{Topic: "home/kitchen/fridge/temperature", Payload: "4.1", Retained: true, At: base.Add(3 * time.Minute)},
		{Topic: "home/kitchen/fridge/door", Payload: "closed", At: base.Add(3 * time.Minute)},
		{Topic: "home/bedroom/sensor", Payload: "22.5", Retained: true, At: base.Add(5 * time.Minute)},
		{Topic: "garage/door", Payload: "open", At: base.Add(6 * time.Minute)},
		{Topic: "home/bedroom/lamp", Payload: "OFF", At: base.Add(8 * time.Minute)},
		{Topic: "zigbee2mqtt/bridge/state", Payload: map[string]any{"state": "online"}, Retained: true, At: base.Add(9 * time.Minute)},
	}
	return NewTree(msgs)
}
