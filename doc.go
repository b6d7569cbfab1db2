/*
Package canopy lets a language model explore a live MQTT topic tree through a
small set of read-only, token-bounded tools.

# Concept

Topics such as home/bedroom/lamp form a tree. Canopy keeps that tree (current value,
retained flag, a short history and a message count per topic) and answers questions
about it in a bounded tool-calling conversation: the model may call describe,
history, children and parents for at most five rounds per user turn, and every
tool output is truncated to its own token budget so the context window stays small.

# Usage

Build an Explorer over a tree source and a session manager wired to a model gateway.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/canopy"
		"github.com/aretw0/canopy/pkg/adapters/memory"
		"github.com/aretw0/canopy/pkg/adapters/openai"
		"github.com/aretw0/canopy/pkg/ports"
		"github.com/aretw0/canopy/pkg/session"
	)

	func main() {
		gw := openai.New("sk-...", "")
		sessions := session.NewManager(memory.NewStore(), session.WithGateway(gw))
		exp := canopy.New(ports.StaticTree{T: memory.Demo()}, canopy.WithSessions(sessions))

		res, err := exp.Ask(context.Background(), "me", "Is the bedroom lamp on?", "home/bedroom")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.FinalText)
	}

# Packages

  - pkg/tree: the topic tree, path resolution and root lookup.
  - pkg/tokens: token estimation and truncation.
  - pkg/digest: the prioritized focus context.
  - pkg/tools: tool schemas, argument parsing and the dispatcher.
  - pkg/conversation: the bounded tool-calling loop.
  - pkg/session: locking and persistence of conversations.
  - pkg/adapters: OpenAI gateway, memory and redis stores, snapshots, feeds, HTTP and MCP.
*/
package canopy
