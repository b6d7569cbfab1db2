package tree

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Split returns the ordered segments of path. The empty path has no segments.
// Empty segments produced by doubled delimiters are kept.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Delimiter)
}

// Resolve walks from root following the literal segments of path.
// The empty path resolves to root itself.
func Resolve(path string, root Node) (Node, error) {
	if !root.Valid() {
		return Node{}, fmt.Errorf("%w: %q (no tree)", domain.ErrNotFound, path)
	}

	cur := root
	for _, seg := range Split(path) {
		next, ok := cur.Child(seg)
		if !ok {
			return Node{}, fmt.Errorf("%w: %q", domain.ErrNotFound, path)
		}
		cur = next
	}
	return cur, nil
}

// FindRoot follows parent references up to the root.
// A node without a parent is its own root; an absent node is not found.
func FindRoot(n Node) (Node, error) {
	if !n.Valid() {
		return Node{}, fmt.Errorf("%w: no node", domain.ErrNotFound)
	}
	cur := n
	for {
		p, ok := cur.Parent()
		if !ok {
			return cur, nil
		}
		cur = p
	}
}
