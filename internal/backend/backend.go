// Package backend selects the Engine Adapter compiled into the binary.
//
// Exactly one of native.go and hosted.go is built: the hosted variant with
// the "hosted" build tag, the native variant otherwise. Both expose the same
// Name constant and New function, so callers never see the other variant.
package backend

import (
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/metta/pkg/engine"
)

// Config carries the settings shared by both variants.
type Config struct {
	Logger   *slog.Logger
	Grace    time.Duration
	Observer engine.Observer
	Output   io.Writer
	WorkDir  string

	// Extensions are JavaScript files loaded by the hosted variant.
	// The native variant ignores them.
	Extensions []string
}
