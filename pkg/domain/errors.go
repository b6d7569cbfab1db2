package domain

import "errors"

// ErrNotFound is returned when a path does not resolve to a node.
var ErrNotFound = errors.New("not found")

// ErrMalformedArguments is returned when a tool argument payload cannot be parsed or validated.
var ErrMalformedArguments = errors.New("malformed arguments")

// ErrUnknownTool is returned when a tool invocation names an operation that does not exist.
var ErrUnknownTool = errors.New("unknown tool")

// ErrGateway wraps failures of the model gateway. It is fatal to the current turn.
var ErrGateway = errors.New("model gateway failure")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
