// Package middleware wraps a history store with extra behaviour, such as
// encryption at rest or redaction of secrets typed at the prompt.
package middleware

import "github.com/aretw0/metta/pkg/ports"

// Middleware allows wrapping a HistoryStore to add behavior.
type Middleware func(ports.HistoryStore) ports.HistoryStore

// Chain applies mws to store; the first middleware sees entries first.
func Chain(store ports.HistoryStore, mws ...Middleware) ports.HistoryStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
