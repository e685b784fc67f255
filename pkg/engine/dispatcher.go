package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/metta/internal/logging"
	"github.com/aretw0/metta/pkg/domain"
)

// DefaultGrace is how long a cancelled evaluation may take to stop on its own
// before its worker is abandoned.
const DefaultGrace = 250 * time.Millisecond

// Job is one engine call. It should honour ctx, but is not required to.
type Job func(ctx context.Context) domain.Outcome

// Observer is notified about abandoned workers.
type Observer interface {
	// WorkerAbandoned is called when a cancelled job missed the grace window.
	WorkerAbandoned()
	// WorkerReclaimed is called when an abandoned job finally returns.
	WorkerReclaimed()
}

// Dispatcher runs jobs one at a time on a worker goroutine and races each one
// against its context. A job that ignores cancellation is abandoned, not
// killed: it keeps the engine until it returns, its result is dropped, and
// the next job waits for it.
//
// A job that panics poisons the dispatcher. Every later Run returns a fatal
// outcome wrapping domain.ErrAdapterPoisoned.
type Dispatcher struct {
	grace    time.Duration
	logger   *slog.Logger
	observer Observer

	slot       chan struct{}
	generation atomic.Uint64
	stale      atomic.Bool

	mu       sync.Mutex
	poisoned error
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithGrace sets the abandon window.
func WithGrace(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.grace = d
		}
	}
}

// WithDispatcherLogger configures the structured logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver registers an observer for abandoned workers.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// NewDispatcher creates a dispatcher with a single worker slot.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		grace:  DefaultGrace,
		logger: logging.NewNop(),
		slot:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// job delivery states
const (
	running int32 = iota
	delivered
	abandoned
)

// Run executes job and returns its outcome, a cancellation outcome if ctx is
// done before a worker could start, or domain.Abandoned() if the job did not
// return within the grace window after ctx was cancelled.
func (d *Dispatcher) Run(ctx context.Context, job Job) domain.Outcome {
	if err := d.Err(); err != nil {
		return domain.FatalOutcome(err)
	}

	// An abandoned worker still owns the engine.
	select {
	case d.slot <- struct{}{}:
	default:
		d.logger.Debug("waiting for abandoned evaluation to finish")
		select {
		case d.slot <- struct{}{}:
		case <-ctx.Done():
			return domain.Cancelled()
		}
	}
	if ctx.Err() != nil {
		<-d.slot
		return domain.Cancelled()
	}

	gen := d.generation.Add(1)
	var state atomic.Int32
	done := make(chan domain.Outcome, 1)

	go func() {
		defer func() { <-d.slot }()

		out := d.protect(ctx, job)
		if state.CompareAndSwap(running, delivered) {
			done <- out
			return
		}
		d.logger.Debug("discarding late result of abandoned evaluation",
			"generation", gen, "outcome", string(out.Kind))
		d.stale.Store(false)
		if d.observer != nil {
			d.observer.WorkerReclaimed()
		}
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
	}

	timer := time.NewTimer(d.grace)
	defer timer.Stop()

	select {
	case out := <-done:
		return out
	case <-timer.C:
	}
	d.stale.Store(true)
	if !state.CompareAndSwap(running, abandoned) {
		d.stale.Store(false)
		return <-done
	}

	d.logger.Warn("evaluation ignored cancellation, leaving it to finish in background",
		"generation", gen, "grace", d.grace)
	if d.observer != nil {
		d.observer.WorkerAbandoned()
	}
	return domain.Abandoned()
}

// Busy reports whether an abandoned worker still owns the engine, in which
// case the next Run waits for it.
func (d *Dispatcher) Busy() bool {
	return d.stale.Load()
}

// Wait blocks until no worker owns the engine, or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	select {
	case d.slot <- struct{}{}:
		<-d.slot
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the poisoning error, if any.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.poisoned
}

func (d *Dispatcher) poison(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.poisoned == nil {
		d.poisoned = err
	}
}

func (d *Dispatcher) protect(ctx context.Context, job Job) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", domain.ErrAdapterPoisoned, r)
			d.logger.Error("engine panicked", "error", err)
			d.poison(err)
			out = domain.FatalOutcome(err)
		}
	}()
	return job(ctx)
}
