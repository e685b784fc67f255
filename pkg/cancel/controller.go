// Package cancel converts asynchronous interrupts into cooperative
// cancellation for the session loop.
//
// The Controller is a two-state machine (Idle, EvaluationInFlight). Every
// phase of the loop obtains a fresh Token; an interrupt trips the current one.
// While Idle that clears the pending input. While an evaluation is in flight
// it asks the engine adapter to stop. A repeated interrupt that arrives before
// the first one has been honoured starts an escalation timer that terminates
// the process if the evaluation is still in flight when it fires.
package cancel

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/metta/internal/logging"
)

// State of the controller.
type State int32

const (
	Idle State = iota
	EvaluationInFlight
)

func (s State) String() string {
	if s == EvaluationInFlight {
		return "evaluation_in_flight"
	}
	return "idle"
}

// Action describes what an interrupt did.
type Action int

const (
	// ClearInput: interrupt while idle, pending input is discarded.
	ClearInput Action = iota
	// CancelEvaluation: first interrupt during an evaluation.
	CancelEvaluation
	// Escalate: repeated interrupt, escalation timer armed.
	Escalate
)

func (a Action) String() string {
	switch a {
	case ClearInput:
		return "clear_input"
	case CancelEvaluation:
		return "cancel_evaluation"
	case Escalate:
		return "escalate"
	}
	return "unknown"
}

// DefaultEscalationGrace is how long a repeated interrupt waits for the
// in-flight evaluation to be released before terminating the process.
const DefaultEscalationGrace = 3 * time.Second

// Controller owns the interrupt state for one session.
type Controller struct {
	state   atomic.Int32
	pending atomic.Int32
	current atomic.Pointer[Token]

	parent   context.Context
	grace    time.Duration
	escalate func()
	observe  func(State, Action)
	logger   *slog.Logger

	timerMu sync.Mutex
	timer   *time.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithEscalation sets the grace period and the callback run when a repeated
// interrupt is not honoured in time. The callback runs on its own goroutine.
func WithEscalation(grace time.Duration, fn func()) Option {
	return func(c *Controller) {
		c.grace = grace
		c.escalate = fn
	}
}

// WithObserver registers a hook called for every interrupt (metrics).
func WithObserver(fn func(State, Action)) Option {
	return func(c *Controller) {
		c.observe = fn
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithParent derives every token from ctx, so cancelling ctx cancels all phases.
func WithParent(ctx context.Context) Option {
	return func(c *Controller) {
		c.parent = ctx
	}
}

// NewController creates an idle controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		parent: context.Background(),
		grace:  DefaultEscalationGrace,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.current.Store(newToken(c.parent))
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Arm returns a fresh token for an idle phase (reading input).
func (c *Controller) Arm() *Token {
	return c.swap()
}

// Begin moves the controller to EvaluationInFlight and returns the token the
// engine adapter must observe.
func (c *Controller) Begin() *Token {
	c.pending.Store(0)
	tok := c.swap()
	c.state.Store(int32(EvaluationInFlight))
	return tok
}

// End moves the controller back to Idle once the adapter reported an outcome.
func (c *Controller) End() {
	c.state.Store(int32(Idle))
	c.pending.Store(0)
	c.stopTimer()
}

// Interrupt trips the current token. It only touches atomics and, for a
// repeated interrupt, arms a timer; it never calls into the engine or history.
func (c *Controller) Interrupt() Action {
	state := c.State()
	tok := c.current.Load()
	tok.trip()

	action := ClearInput
	if state == EvaluationInFlight {
		action = CancelEvaluation
		if c.pending.Add(1) > 1 {
			action = Escalate
			c.startTimer()
		}
	}

	c.logger.Debug("interrupt received", "state", state.String(), "action", action.String())
	if c.observe != nil {
		c.observe(state, action)
	}
	return action
}

// Close releases the current token and any escalation timer.
func (c *Controller) Close() {
	c.stopTimer()
	c.current.Load().release()
}

func (c *Controller) swap() *Token {
	next := newToken(c.parent)
	if prev := c.current.Swap(next); prev != nil {
		prev.release()
	}
	return next
}

func (c *Controller) startTimer() {
	if c.escalate == nil {
		return
	}
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.grace, func() {
		if c.State() == EvaluationInFlight {
			c.logger.Warn("evaluation did not stop after repeated interrupt, terminating", "grace", c.grace)
			c.escalate()
		}
	})
}

func (c *Controller) stopTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
