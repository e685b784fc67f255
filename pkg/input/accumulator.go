// Package input turns raw terminal lines into complete input units.
//
// The Accumulator tracks parenthesis depth, string literals and line comments
// across calls so that an expression may span several lines. It does not
// parse: a unit is handed to the engine as soon as grouping balances, and the
// engine reports any remaining syntax error itself.
package input

import (
	"strings"

	"github.com/aretw0/metta/pkg/domain"
)

// Status is the verdict of feeding one line.
type Status int

const (
	// Empty means the line was blank and nothing is pending.
	Empty Status = iota
	// Continuation means more lines are needed to close the unit.
	Continuation
	// Complete means Result.Unit is ready for evaluation.
	Complete
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Continuation:
		return "continuation"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Result is returned by Feed.
type Result struct {
	Status Status
	Unit   domain.InputUnit
}

// Accumulator collects lines until they form a balanced unit.
// It is not safe for concurrent use; the session loop owns it.
type Accumulator struct {
	lines    []string
	depth    int
	inString bool
	escaped  bool
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Feed appends one raw line (without its terminator) and reports whether the
// accumulated text is now a complete unit.
func (a *Accumulator) Feed(line string) Result {
	line = strings.TrimRight(line, "\r\n")

	if len(a.lines) == 0 && strings.TrimSpace(line) == "" {
		return Result{Status: Empty}
	}

	// The newline joining this line to the previous one is the escaped char.
	if a.inString && a.escaped {
		a.escaped = false
	}

	a.scan(line)
	a.lines = append(a.lines, line)

	if a.depth > 0 || a.inString {
		return Result{Status: Continuation}
	}

	unit := domain.InputUnit{
		Source: strings.Join(a.lines, "\n"),
		Lines:  len(a.lines),
	}
	a.Reset()
	return Result{Status: Complete, Unit: unit}
}

func (a *Accumulator) scan(line string) {
	for _, c := range line {
		if a.inString {
			switch {
			case a.escaped:
				a.escaped = false
			case c == '\\':
				a.escaped = true
			case c == '"':
				a.inString = false
			}
			continue
		}
		switch c {
		case ';':
			return
		case '"':
			a.inString = true
		case '(':
			a.depth++
		case ')':
			a.depth--
		}
	}
}

// Pending reports whether a partial unit is waiting for more lines.
func (a *Accumulator) Pending() bool {
	return len(a.lines) > 0
}

// Depth returns the current count of unclosed parentheses.
func (a *Accumulator) Depth() int {
	return a.depth
}

// InString reports whether a string literal is open.
func (a *Accumulator) InString() bool {
	return a.inString
}

// Partial returns the text accumulated so far.
func (a *Accumulator) Partial() string {
	return strings.Join(a.lines, "\n")
}

// Reset discards any pending partial unit.
func (a *Accumulator) Reset() {
	a.lines = a.lines[:0]
	a.depth = 0
	a.inString = false
	a.escaped = false
}
