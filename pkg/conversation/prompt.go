package conversation

import "github.com/aretw0/canopy/pkg/tree"

// DefaultSystemPrompt frames the assistant role and the tree tools.
const DefaultSystemPrompt = `You are an assistant that helps users understand a live MQTT topic tree.
Topics are slash-delimited paths such as home/bedroom/lamp. Each topic may carry a current value and a short history.

You can query the tree with read-only tools:
- describe(path): current value, retained flag, message and child counts
- history(path, limit): recent values, oldest first
- children(path, limit): direct children; an empty path lists the top-level topics
- parents(path): the ancestor hierarchy of a topic

Use the tools when the context below is not enough. Paths are matched literally.
Answer concisely. When you suggest a message to publish, give the topic and payload explicitly.`

// ExhaustionNotice is returned when the round cap is hit without any model text.
const ExhaustionNotice = "I could not finish answering within the allowed number of tool rounds. " +
	"Try a more specific question or select the topic you are interested in."

// userContent attaches the focus node digest to the user's question.
// No digest is attached when the focus is the root or absent.
func (s *Session) userContent(text string, focus tree.Node) string {
	if !focus.Valid() || focus.IsRoot() {
		return text
	}
	d := s.builder.Build(focus)
	if d == "" {
		return text
	}
	return text + "\n\nContext for the selected topic:\n" + d
}
