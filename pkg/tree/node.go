package tree

import (
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Node is a read handle on a tree node. The zero Node is absent.
type Node struct {
	tree *Tree
	id   int
}

// Valid reports whether the handle refers to a node.
func (n Node) Valid() bool {
	return n.tree != nil && n.id >= 0
}

// IsRoot reports whether n is the root of its tree.
func (n Node) IsRoot() bool {
	return n.Valid() && n.id == rootID
}

// Tree returns the arena the node belongs to.
func (n Node) Tree() *Tree {
	return n.tree
}

func (n Node) rec() *record {
	return &n.tree.nodes[n.id]
}

// Segment returns the node's own name.
func (n Node) Segment() string {
	if !n.Valid() {
		return ""
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.rec().segment
}

// Path returns the parent's path joined with the segment, or the segment alone
// at the first level. The root's path is empty.
func (n Node) Path() string {
	if !n.Valid() {
		return ""
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.tree.pathLocked(n.id)
}

func (t *Tree) pathLocked(id int) string {
	var segs []string
	for id != rootID && id != noParent {
		segs = append(segs, t.nodes[id].segment)
		id = t.nodes[id].parent
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, Delimiter)
}

// Value returns the latest value, if the topic ever received one.
func (n Node) Value() (domain.Value, bool) {
	if !n.Valid() {
		return domain.Value{}, false
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	r := n.rec()
	return r.value, r.hasValue
}

// HasValue reports whether the topic carries a value (as opposed to being structural only).
func (n Node) HasValue() bool {
	_, ok := n.Value()
	return ok
}

// History returns the retained values, oldest first.
func (n Node) History() []domain.Value {
	if !n.Valid() {
		return nil
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.rec().history.items()
}

// MessageCount returns how many messages the topic has received.
func (n Node) MessageCount() int {
	if !n.Valid() {
		return 0
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return n.rec().messages
}

// Children returns the direct children in insertion order.
func (n Node) Children() []Node {
	if !n.Valid() {
		return nil
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	ids := n.rec().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, id: id}
	}
	return out
}

// ChildCount returns the number of direct children.
func (n Node) ChildCount() int {
	if !n.Valid() {
		return 0
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	return len(n.rec().children)
}

// Child returns the child with exactly the given segment.
func (n Node) Child(segment string) (Node, bool) {
	if !n.Valid() {
		return Node{}, false
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	id, ok := n.rec().index[segment]
	if !ok {
		return Node{}, false
	}
	return Node{tree: n.tree, id: id}, true
}

// Parent returns the parent node. The root has none.
func (n Node) Parent() (Node, bool) {
	if !n.Valid() {
		return Node{}, false
	}
	n.tree.mu.RLock()
	defer n.tree.mu.RUnlock()
	p := n.rec().parent
	if p == noParent {
		return Node{}, false
	}
	return Node{tree: n.tree, id: p}, true
}

// Ancestors returns the ancestors from the first-level topic down to the immediate
// parent. The root is not included.
func (n Node) Ancestors() []Node {
	var out []Node
	for p, ok := n.Parent(); ok && !p.IsRoot(); p, ok = p.Parent() {
		out = append(out, p)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
