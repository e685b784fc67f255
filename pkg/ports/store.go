package ports

import "context"

// HistoryStore persists the history log of past input units.
type HistoryStore interface {
	// Load returns every persisted entry, oldest first.
	// A store with nothing persisted yet returns an empty slice and no error.
	Load(ctx context.Context) ([]string, error)

	// Append adds entries after the persisted ones, keeping their order.
	Append(ctx context.Context, entries ...string) error

	// Clear removes every persisted entry.
	Clear(ctx context.Context) error
}
