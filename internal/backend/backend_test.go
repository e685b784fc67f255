package backend_test

import (
	"context"
	"testing"

	"github.com/aretw0/metta/internal/backend"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against whichever variant the build tags selected.
func TestNew_CompiledInBackend(t *testing.T) {
	eng, err := backend.New(backend.Config{})
	require.NoError(t, err)
	defer eng.Close()

	assert.Equal(t, backend.Name, eng.Backend())

	out := eng.Evaluate(context.Background(), domain.NewInputUnit("!(+ 1 2)"))
	require.Equal(t, domain.OutcomeValues, out.Kind)
	assert.Equal(t, [][]string{{"3"}}, out.Results)
}
