package domain

import (
	"fmt"
	"time"
)

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind string

const (
	OutcomeValues    OutcomeKind = "values"    // Engine produced results
	OutcomeError     OutcomeKind = "error"     // Engine rejected or failed on the unit
	OutcomeCancelled OutcomeKind = "cancelled" // Engine honoured the cancellation token
	OutcomeAbandoned OutcomeKind = "abandoned" // Worker left running in the background
	OutcomeFatal     OutcomeKind = "fatal"     // Adapter cannot safely continue
)

// Location points into the source text of an InputUnit. Line and Column are 1-based.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// EngineError is a structured failure reported by the engine for one unit.
type EngineError struct {
	Message  string    `json:"message"`
	Location *Location `json:"location,omitempty"`
}

func (e *EngineError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s: %s", e.Location, e.Message)
	}
	return e.Message
}

// Outcome is the result of evaluating one InputUnit.
//
// Results holds one entry per executed expression ("!" in the source); each
// entry is the ordered list of rendered values the expression produced.
type Outcome struct {
	Kind     OutcomeKind
	Results  [][]string
	Err      *EngineError
	Fatal    error
	Duration time.Duration
}

// Values builds a successful outcome.
func Values(results [][]string) Outcome {
	return Outcome{Kind: OutcomeValues, Results: results}
}

// Failed builds an engine error outcome.
func Failed(err *EngineError) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// Cancelled builds an outcome for an evaluation that stopped on request.
func Cancelled() Outcome {
	return Outcome{Kind: OutcomeCancelled}
}

// Abandoned builds an outcome for an evaluation whose worker was left running.
func Abandoned() Outcome {
	return Outcome{Kind: OutcomeAbandoned}
}

// FatalOutcome builds an outcome that ends the session.
func FatalOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeFatal, Fatal: err}
}

// IsInterrupted reports whether the outcome is the product of a cancellation.
func (o Outcome) IsInterrupted() bool {
	return o.Kind == OutcomeCancelled || o.Kind == OutcomeAbandoned
}
