package engine

import (
	"context"
	"errors"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/metta"
)

// Outcome converts what the engine returned into a domain outcome.
// A cancelled ctx wins over any partial result.
func Outcome(ctx context.Context, results [][]metta.Atom, err error) domain.Outcome {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Cancelled()
	}
	if err != nil {
		return domain.Failed(EngineError(err))
	}
	rendered := make([][]string, len(results))
	for i, r := range results {
		rendered[i] = metta.Strings(r)
	}
	return domain.Values(rendered)
}

// EngineError turns an engine failure into its structured form, keeping the
// source position of syntax errors.
func EngineError(err error) *domain.EngineError {
	var perr *metta.ParseError
	if errors.As(err, &perr) {
		return &domain.EngineError{
			Message:  perr.Message,
			Location: &domain.Location{Line: perr.Line, Column: perr.Column},
		}
	}
	return &domain.EngineError{Message: err.Error()}
}
