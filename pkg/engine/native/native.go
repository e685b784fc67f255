// Package native is the Engine Adapter that runs the engine in-process.
//
// The engine checks its context between reduction steps, so cancellation is
// cooperative. Calls still go through an engine.Dispatcher so a unit stuck in
// a grounded operation cannot hang the session.
package native

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/metta/internal/logging"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine"
	"github.com/aretw0/metta/pkg/metta"
)

// Name of the backend.
const Name = "native"

// closeTimeout bounds how long Close waits for an abandoned evaluation.
const closeTimeout = time.Second

// Adapter owns one engine instance.
type Adapter struct {
	runner *metta.Runner
	disp   *engine.Dispatcher
	logger *slog.Logger
}

type config struct {
	logger     *slog.Logger
	dispatcher []engine.DispatcherOption
	runner     []metta.Option
}

// Option configures the Adapter.
type Option func(*config)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGrace sets how long a cancelled evaluation may take to stop before its
// worker is abandoned.
func WithGrace(d time.Duration) Option {
	return func(c *config) {
		c.dispatcher = append(c.dispatcher, engine.WithGrace(d))
	}
}

// WithObserver reports abandoned workers (metrics).
func WithObserver(o engine.Observer) Option {
	return func(c *config) {
		c.dispatcher = append(c.dispatcher, engine.WithObserver(o))
	}
}

// WithOutput sets where println! writes.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.runner = append(c.runner, metta.WithOutput(w))
	}
}

// WithWorkingDir sets the directory import! resolves against.
func WithWorkingDir(dir string) Option {
	return func(c *config) {
		c.runner = append(c.runner, metta.WithWorkingDir(dir))
	}
}

// New creates an adapter with a fresh engine.
func New(opts ...Option) (*Adapter, error) {
	c := &config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	a := &Adapter{
		runner: metta.New(c.runner...),
		disp:   engine.NewDispatcher(append([]engine.DispatcherOption{engine.WithDispatcherLogger(c.logger)}, c.dispatcher...)...),
		logger: c.logger,
	}
	a.logger.Debug("native engine ready", "version", metta.Version)
	return a, nil
}

// Evaluate runs unit against the engine.
func (a *Adapter) Evaluate(ctx context.Context, unit domain.InputUnit) domain.Outcome {
	start := time.Now()
	out := a.disp.Run(ctx, func(ctx context.Context) domain.Outcome {
		res, err := a.runner.Run(ctx, unit.Source)
		return engine.Outcome(ctx, res, err)
	})
	out.Duration = time.Since(start)
	return out
}

// Busy reports whether an abandoned evaluation still holds the engine.
func (a *Adapter) Busy() bool { return a.disp.Busy() }

// Backend returns "native".
func (a *Adapter) Backend() string { return Name }

// Version returns the engine version.
func (a *Adapter) Version() string { return metta.Version }

// Close waits briefly for an abandoned evaluation to finish.
func (a *Adapter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.disp.Wait(ctx); err != nil {
		a.logger.Warn("closing with an evaluation still running", "error", err)
	}
	return nil
}
