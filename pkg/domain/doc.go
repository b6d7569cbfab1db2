/*
Package domain contains the core domain models shared by every Canopy component.

It defines the values observed on the topic tree, the conversation history exchanged
with the model gateway, and the tool invocation records that flow between the
orchestrator and the dispatcher. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Value: A payload received on a topic, with its retained flag and receipt time.
  - Message: One entry of a conversation (system, user, assistant or tool).
  - ConversationState: The ordered message history of a single user session.
  - ToolInvocation: A read-only query requested by the model, keyed by correlation ID.
  - TurnResult: The outcome of one user turn, tagged with a TurnStatus.
*/
package domain
