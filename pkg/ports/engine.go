package ports

import (
	"context"

	"github.com/aretw0/metta/pkg/domain"
)

// Engine is the uniform contract over the backend compiled into the binary.
// Exactly one implementation is linked in, selected by build tags.
type Engine interface {
	// Evaluate runs one unit. It must return promptly once ctx is cancelled,
	// with an outcome for which IsInterrupted reports true. Engine failures are
	// reported in the outcome, never as a panic or a Go error.
	Evaluate(ctx context.Context, unit domain.InputUnit) domain.Outcome

	// Backend names the variant ("native" or "hosted").
	Backend() string

	// Version reports the engine version (for the hosted variant, the version
	// of the library loaded into the embedded runtime).
	Version() string

	// Close releases resources owned by the adapter.
	Close() error
}

// BusyReporter is implemented by engines whose abandoned evaluations keep the
// engine until they return.
type BusyReporter interface {
	// Busy reports whether the next Evaluate has to wait for an abandoned one.
	Busy() bool
}
