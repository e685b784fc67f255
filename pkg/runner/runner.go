package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/metta/internal/logging"
	"github.com/aretw0/metta/pkg/cancel"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/history"
	"github.com/aretw0/metta/pkg/input"
	"github.com/aretw0/metta/pkg/ports"
)

// Runner is the session loop. It processes one input unit at a time, in
// submission order; at most one evaluation is in flight.
type Runner struct {
	engine       ports.Engine
	reader       ports.LineReader
	controller   *cancel.Controller
	history      *history.Log
	renderer     Renderer
	helpRenderer ContentRenderer
	out          io.Writer
	logger       *slog.Logger
	observe      func(domain.Outcome)

	prompt       string
	continuation string

	acc *input.Accumulator
}

// ContentRenderer transforms markdown before it is printed.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner writing to stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		out:          os.Stdout,
		prompt:       DefaultPrompt,
		continuation: DefaultContinuationPrompt,
		acc:          input.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.controller == nil {
		r.controller = cancel.NewController(cancel.WithLogger(r.logger))
	}
	if r.history == nil {
		r.history = history.NewLog(0)
	}
	if r.renderer == nil {
		r.renderer = &TextRenderer{}
	}
	return r
}

// History returns the log units are appended to.
func (r *Runner) History() *history.Log {
	return r.history
}

// Run reads and evaluates input units until the user quits, input ends, or a
// fatal outcome is reported (returned as a *domain.ExitError). Input errors,
// engine errors and cancellations are rendered and the loop continues.
// Cancelling ctx stops the loop and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if r.engine == nil {
		return fmt.Errorf("runner: no engine configured")
	}
	if r.reader == nil {
		return fmt.Errorf("runner: no line reader configured")
	}

	// Shutting down unblocks a pending read the same way an interrupt does.
	stop := context.AfterFunc(ctx, func() { r.controller.Interrupt() })
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		prompt := r.prompt
		if r.acc.Pending() {
			prompt = r.continuation
		}

		tok := r.controller.Arm()
		line, err := r.reader.ReadLine(tok.Context(), prompt)
		switch {
		case errors.Is(err, domain.ErrInterrupted):
			if ctx.Err() != nil {
				return nil
			}
			r.clearInput("interrupt")
			continue
		case errors.Is(err, io.EOF):
			if r.acc.Pending() {
				r.logger.Debug("end of input inside an expression", "partial", r.acc.Partial())
				r.acc.Reset()
				r.renderer.Notice(r.out, domain.ErrIncompleteInput.Error())
				continue
			}
			return nil
		case err != nil:
			return fmt.Errorf("read error: %w", err)
		}

		clean, err := SanitizeInput(line)
		if err != nil {
			r.renderer.Notice(r.out, fmt.Sprintf("line rejected: %v", err))
			continue
		}

		if cmd, ok := r.metaCommand(clean); ok {
			if quit := r.runMeta(cmd); quit {
				return nil
			}
			if tok.Cancelled() {
				r.clearInput("interrupt")
			}
			continue
		}

		// An interrupt after the read returned still applies to this line.
		if tok.Cancelled() {
			r.clearInput("interrupt")
			continue
		}

		res := r.acc.Feed(clean)
		if res.Status != input.Complete {
			continue
		}

		out := r.evaluate(ctx, res.Unit)
		r.renderer.Outcome(r.out, out)
		r.history.Append(res.Unit.Source)
		r.reader.AppendHistory(res.Unit.Source)

		if out.Kind == domain.OutcomeFatal {
			return &domain.ExitError{Code: domain.ExitFatal, Err: out.Fatal}
		}
	}
}

// RunBatch evaluates a whole script as one unit and maps the outcome to an
// exit error: engine error 2, interrupt 130, fatal 5.
func (r *Runner) RunBatch(ctx context.Context, unit domain.InputUnit) error {
	if r.engine == nil {
		return fmt.Errorf("runner: no engine configured")
	}
	if unit.IsBlank() {
		return nil
	}

	out := r.evaluate(ctx, unit)
	r.renderer.Outcome(r.out, out)

	switch out.Kind {
	case domain.OutcomeError:
		return &domain.ExitError{Code: domain.ExitScriptError, Err: out.Err}
	case domain.OutcomeCancelled, domain.OutcomeAbandoned:
		return &domain.ExitError{Code: domain.ExitInterrupted, Err: domain.ErrInterrupted}
	case domain.OutcomeFatal:
		return &domain.ExitError{Code: domain.ExitFatal, Err: out.Fatal}
	}
	return nil
}

// evaluate dispatches unit under the controller. The engine observes both
// the controller's token and ctx. The controller is back to Idle when it
// returns, whatever the engine did.
func (r *Runner) evaluate(ctx context.Context, unit domain.InputUnit) domain.Outcome {
	tok := r.controller.Begin()
	defer r.controller.End()

	evalCtx, cancelEval := context.WithCancel(tok.Context())
	defer cancelEval()
	stop := context.AfterFunc(ctx, cancelEval)
	defer stop()

	if b, ok := r.engine.(ports.BusyReporter); ok && b.Busy() {
		r.renderer.Notice(r.out, MsgWaiting)
	}

	r.logger.Debug("evaluating", "lines", unit.Lines)
	out := r.engine.Evaluate(evalCtx, unit)
	r.logger.Debug("evaluated", "outcome", string(out.Kind), "duration", out.Duration)

	if r.observe != nil {
		r.observe(out)
	}
	return out
}

func (r *Runner) clearInput(reason string) {
	if !r.acc.Pending() {
		r.renderer.Notice(r.out, "")
		return
	}
	r.logger.Debug("pending input cleared", "reason", reason)
	r.acc.Reset()
	r.renderer.Notice(r.out, "input cleared")
}
