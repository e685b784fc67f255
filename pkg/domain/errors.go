package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteInput is reported when input ends while an expression is still open.
	ErrIncompleteInput = errors.New("unexpected end of input: unterminated expression discarded")

	// ErrInterrupted is returned by blocking reads unblocked by an interrupt.
	ErrInterrupted = errors.New("interrupted")

	// ErrEngineInit is returned when an engine adapter fails to start.
	ErrEngineInit = errors.New("engine initialization failed")

	// ErrVersionMismatch is returned when the hosted runtime library is outside the supported range.
	ErrVersionMismatch = errors.New("unsupported hosted runtime version")

	// ErrAdapterPoisoned is returned once an engine adapter can no longer be trusted.
	ErrAdapterPoisoned = errors.New("engine adapter is in an unrecoverable state")

	// ErrSignalSetup is returned when the interrupt handler cannot be installed.
	ErrSignalSetup = errors.New("failed to install interrupt handler")

	// ErrHistoryNotFound is returned by stores that have nothing persisted yet.
	ErrHistoryNotFound = errors.New("history not found")
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitScriptError = 2
	ExitAdapterInit = 3
	ExitSignalSetup = 4
	ExitFatal       = 5
	ExitInterrupted = 130
)

// ExitError carries the exit code a failure should terminate the process with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by the bootstrap to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, ErrVersionMismatch), errors.Is(err, ErrEngineInit):
		return ExitAdapterInit
	case errors.Is(err, ErrSignalSetup):
		return ExitSignalSetup
	case errors.Is(err, ErrAdapterPoisoned):
		return ExitFatal
	}
	return ExitInternal
}
