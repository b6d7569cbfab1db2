/*
Package tools implements the four read-only topic tree queries offered to the model.

	history   recent values of a topic, oldest first
	describe  value, retained flag and counts of a topic
	children  direct children of a topic (or of the root)
	parents   the ancestor chain of a topic

Every operation resolves its target against a caller-supplied root, bounds its
output to its own token budget and reports failures (unknown path, malformed
arguments, unknown operation) as descriptive text. Nothing here returns an error
to the conversation: the model reads the text and recovers.

Each operation is callable on its own:

	d := tools.NewDispatcher()
	fmt.Println(d.Children("home/bedroom", 10, root))

The Dispatch and DispatchAll entry points parse the raw argument payload of a
domain.ToolInvocation first.
*/
package tools
