package metta

import (
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/metta/internal/backend"
	"github.com/aretw0/metta/pkg/ports"
)

// Version of the shell.
const Version = "0.3.0"

// Backend returns the name of the compiled-in Engine Adapter.
func Backend() string {
	return backend.Name
}

// Option configures New.
type Option func(*backend.Config)

// WithLogger configures the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *backend.Config) { c.Logger = logger }
}

// WithOutput sets where println! writes.
func WithOutput(w io.Writer) Option {
	return func(c *backend.Config) { c.Output = w }
}

// WithGrace sets how long a cancelled evaluation may take to stop before it
// is abandoned.
func WithGrace(d time.Duration) Option {
	return func(c *backend.Config) { c.Grace = d }
}

// WithExtensions loads JavaScript extensions (hosted backend only).
func WithExtensions(paths ...string) Option {
	return func(c *backend.Config) { c.Extensions = append(c.Extensions, paths...) }
}

// New creates the compiled-in Engine Adapter.
func New(opts ...Option) (ports.Engine, error) {
	var cfg backend.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return backend.New(cfg)
}
