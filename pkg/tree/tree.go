package tree

import (
	"strings"
	"sync"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// Delimiter separates path segments.
const Delimiter = "/"

// DefaultHistoryCapacity is the number of values kept per topic.
const DefaultHistoryCapacity = 50

const (
	rootID   = 0
	noParent = -1
)

type record struct {
	segment  string
	parent   int
	children []int
	index    map[string]int

	value    domain.Value
	hasValue bool
	history  *ring[domain.Value]
	messages int
}

// Tree is an arena of topic nodes rooted at an unnamed root.
// Safe for concurrent use: the tree store writes through Update while readers
// traverse Node handles. Readers may observe a tree that changes between calls.
type Tree struct {
	mu         sync.RWMutex
	nodes      []record
	historyCap int
}

// Option configures a Tree.
type Option func(*Tree)

// WithHistoryCapacity sets how many values each topic keeps.
func WithHistoryCapacity(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.historyCap = n
		}
	}
}

// New creates an empty tree holding only the root.
func New(opts ...Option) *Tree {
	t := &Tree{historyCap: DefaultHistoryCapacity}
	for _, opt := range opts {
		opt(t)
	}
	t.nodes = []record{t.newRecord("", noParent)}
	return t
}

func (t *Tree) newRecord(segment string, parent int) record {
	return record{
		segment: segment,
		parent:  parent,
		index:   make(map[string]int),
		history: newRing[domain.Value](t.historyCap),
	}
}

// Root returns the root node. Its path is the empty string.
func (t *Tree) Root() Node {
	return Node{tree: t, id: rootID}
}

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Update records a message on topic, creating missing nodes along the way.
// The topic is split on Delimiter without normalization. The empty topic names
// the root, which holds no value, so it is ignored and the zero Node returned.
func (t *Tree) Update(topic string, payload any, retained bool, at time.Time) Node {
	if topic == "" {
		return Node{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	id := rootID
	for _, seg := range strings.Split(topic, Delimiter) {
		child, ok := t.nodes[id].index[seg]
		if !ok {
			child = len(t.nodes)
			t.nodes = append(t.nodes, t.newRecord(seg, id))
			t.nodes[id].index[seg] = child
			t.nodes[id].children = append(t.nodes[id].children, child)
		}
		id = child
	}

	v := domain.Value{Payload: payload, Retained: retained, ReceivedAt: at}
	rec := &t.nodes[id]
	rec.value = v
	rec.hasValue = true
	rec.history.push(v)
	rec.messages++

	return Node{tree: t, id: id}
}

// Walk visits every node depth-first in child insertion order, root first.
// Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(Node) bool) {
	var visit func(id int) bool
	visit = func(id int) bool {
		if !fn(Node{tree: t, id: id}) {
			return false
		}
		t.mu.RLock()
		children := append([]int(nil), t.nodes[id].children...)
		t.mu.RUnlock()
		for _, c := range children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(rootID)
}
