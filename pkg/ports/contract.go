package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEngineContract runs a suite of tests to verify that an Engine
// implementation adheres to the defined interface contract.
// The engine must start with an empty space.
func RunEngineContract(t *testing.T, engine Engine) {
	ctx := context.Background()

	t.Run("Identity", func(t *testing.T) {
		assert.NotEmpty(t, engine.Backend())
		assert.NotEmpty(t, engine.Version())
	})

	t.Run("Values", func(t *testing.T) {
		out := engine.Evaluate(ctx, domain.NewInputUnit("!(+ 1 2)"))
		require.Equal(t, domain.OutcomeValues, out.Kind, "outcome: %+v", out)
		assert.Equal(t, [][]string{{"3"}}, out.Results)
	})

	t.Run("State Persists", func(t *testing.T) {
		out := engine.Evaluate(ctx, domain.NewInputUnit("(= (contract-double $x) (* 2 $x))"))
		require.Equal(t, domain.OutcomeValues, out.Kind)
		assert.Empty(t, out.Results)

		out = engine.Evaluate(ctx, domain.NewInputUnit("!(contract-double 21)"))
		require.Equal(t, domain.OutcomeValues, out.Kind)
		assert.Equal(t, [][]string{{"42"}}, out.Results)
	})

	t.Run("Syntax Error", func(t *testing.T) {
		out := engine.Evaluate(ctx, domain.NewInputUnit("!(+ 1 2))"))
		require.Equal(t, domain.OutcomeError, out.Kind)
		require.NotNil(t, out.Err)
		assert.Contains(t, out.Err.Message, "Unexpected right bracket")
		require.NotNil(t, out.Err.Location, "syntax errors carry a location")
		assert.Equal(t, 1, out.Err.Location.Line)
	})

	t.Run("Recovers After Error", func(t *testing.T) {
		out := engine.Evaluate(ctx, domain.NewInputUnit("!(* 2 3)"))
		require.Equal(t, domain.OutcomeValues, out.Kind)
		assert.Equal(t, [][]string{{"6"}}, out.Results)
	})

	t.Run("Cancellation", func(t *testing.T) {
		out := engine.Evaluate(ctx, domain.NewInputUnit("(= (contract-loop) (contract-loop))"))
		require.Equal(t, domain.OutcomeValues, out.Kind)

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		out = engine.Evaluate(cctx, domain.NewInputUnit("!(contract-loop)"))
		assert.True(t, out.IsInterrupted(), "outcome: %+v", out)
		assert.Less(t, time.Since(start), time.Second)

		out = engine.Evaluate(ctx, domain.NewInputUnit("!(+ 2 2)"))
		require.Equal(t, domain.OutcomeValues, out.Kind, "engine must stay usable after a cancellation")
		assert.Equal(t, [][]string{{"4"}}, out.Results)
	})
}
