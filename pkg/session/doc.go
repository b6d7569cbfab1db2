/*
Package session implements conversation session management and persistence orchestration.

A Manager serializes access to each session ID (locally with ref-counted mutexes,
and across replicas with an optional ports.DistributedLocker), loads the stored
ConversationState, runs a turn through the conversation package and persists the
committed result.
*/
package session
