package ports

import "github.com/aretw0/canopy/pkg/tree"

// TreeSource yields the topic tree to query. Sources that reload return a
// new tree after each reload; callers should not cache it across requests.
type TreeSource interface {
	Tree() *tree.Tree
}

// StaticTree is a TreeSource over a fixed tree.
type StaticTree struct {
	T *tree.Tree
}

// Tree implements TreeSource.
func (s StaticTree) Tree() *tree.Tree {
	return s.T
}
