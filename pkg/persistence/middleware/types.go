// Package middleware wraps a ConversationStore to transform session states on
// their way to and from the backend.
package middleware

import "github.com/aretw0/canopy/pkg/ports"

// Middleware allows wrapping a ConversationStore to add behavior.
type Middleware func(ports.ConversationStore) ports.ConversationStore

// Chain applies mws to store so that the first middleware is the outermost:
// Save runs through mws in order, Load in reverse.
func Chain(store ports.ConversationStore, mws ...Middleware) ports.ConversationStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
