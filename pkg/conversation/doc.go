/*
Package conversation drives the bounded tool-calling loop between a user, the
model gateway and the topic tree.

A Session owns the ConversationState of one user. Each call to SendTurn runs a
small state machine:

	AWAITING_MODEL --plain reply--> DONE
	AWAITING_MODEL --tool calls--> EXECUTING_TOOLS --> AWAITING_MODEL
	after MaxRounds gateway calls without a plain reply --> LIMIT_REACHED

Every invocation of a round is executed exactly once, and the assistant message
carrying the invocations is appended before their tool results. The turn is staged
on a copy of the history and committed only when it completes, so a gateway
failure leaves the session untouched and the turn can be retried.
*/
package conversation
