package runner

import (
	"io"
	"log/slog"

	"github.com/aretw0/metta/pkg/cancel"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/history"
	"github.com/aretw0/metta/pkg/ports"
)

// Default prompts.
const (
	DefaultPrompt             = "metta> "
	DefaultContinuationPrompt = "...> "
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithEngine configures the Engine Adapter. Required.
func WithEngine(engine ports.Engine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}

// WithReader configures where lines come from. Required for Run.
func WithReader(reader ports.LineReader) Option {
	return func(r *Runner) {
		r.reader = reader
	}
}

// WithController configures the cancellation controller shared with the
// signal handler.
func WithController(c *cancel.Controller) Option {
	return func(r *Runner) {
		r.controller = c
	}
}

// WithHistory configures the history log units are appended to.
func WithHistory(log *history.Log) Option {
	return func(r *Runner) {
		r.history = log
	}
}

// WithOutput sets where outcomes are written.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithRenderer configures how outcomes are printed.
func WithRenderer(renderer Renderer) Option {
	return func(r *Runner) {
		r.renderer = renderer
	}
}

// WithHelpRenderer configures how the :help markdown is turned into terminal
// output (e.g. glamour).
func WithHelpRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.helpRenderer = renderer
	}
}

// WithPrompts overrides the primary and continuation prompts. Empty values
// keep the defaults.
func WithPrompts(primary, continuation string) Option {
	return func(r *Runner) {
		if primary != "" {
			r.prompt = primary
		}
		if continuation != "" {
			r.continuation = continuation
		}
	}
}

// WithObserver registers a hook called with every outcome (metrics).
func WithObserver(fn func(domain.Outcome)) Option {
	return func(r *Runner) {
		r.observe = fn
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}
