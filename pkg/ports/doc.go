/*
Package ports defines the driven ports (interfaces) used by the Canopy conversation core.

These interfaces decouple the orchestrator from the model provider and from session
persistence, so the same core runs in the CLI, the HTTP server and in tests.

# Key Interfaces

  - ModelGateway: Sends a message list (plus tool schemas) to a language model and
    returns either a final reply or a set of tool invocations.
  - ConversationStore: Holds the ConversationState of live sessions.
  - DistributedLocker: Provides distributed locking for concurrent access to a session.
*/
package ports
