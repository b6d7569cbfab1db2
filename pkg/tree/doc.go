/*
Package tree holds the live topic tree as an arena of nodes.

Nodes live in a single slice owned by Tree and refer to each other by index: each
record stores the index of its parent and the ordered indices of its children.
Callers never hold pointers into the arena; they hold Node handles, which are cheap
values that read through the Tree under its read lock.

Topics are split on Delimiter literally. A doubled delimiter produces an empty
segment, which is a distinct child like any other ("a//b" is not "a/b").

# Reading

	root := t.Root()
	lamp, err := tree.Resolve("home/bedroom/lamp", root)
	if errors.Is(err, domain.ErrNotFound) {
		// ...
	}
	v, ok := lamp.Value()
*/
package tree
