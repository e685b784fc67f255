package native_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine/native"
	"github.com/aretw0/metta/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Contract(t *testing.T) {
	a, err := native.New()
	require.NoError(t, err)
	defer a.Close()

	ports.RunEngineContract(t, a)
}

func TestAdapter_Identity(t *testing.T) {
	a, err := native.New()
	require.NoError(t, err)
	defer a.Close()

	var _ ports.Engine = a
	assert.Equal(t, "native", a.Backend())
}

func TestAdapter_Output(t *testing.T) {
	var out bytes.Buffer
	a, err := native.New(native.WithOutput(&out))
	require.NoError(t, err)
	defer a.Close()

	res := a.Evaluate(context.Background(), domain.NewInputUnit(`!(println! "hi")`))
	require.Equal(t, domain.OutcomeValues, res.Kind)
	assert.Equal(t, [][]string{{"()"}}, res.Results)
	assert.Equal(t, "hi\n", out.String())
}

func TestAdapter_MultipleResults(t *testing.T) {
	a, err := native.New()
	require.NoError(t, err)
	defer a.Close()

	res := a.Evaluate(context.Background(), domain.NewInputUnit("(= (c) a)\n(= (c) b)\n!(c)\n!(+ 1 1)"))
	require.Equal(t, domain.OutcomeValues, res.Kind)
	assert.Equal(t, [][]string{{"a", "b"}, {"2"}}, res.Results)
}

func TestAdapter_BareExpressionIsAdded(t *testing.T) {
	a, err := native.New()
	require.NoError(t, err)
	defer a.Close()

	res := a.Evaluate(context.Background(), domain.NewInputUnit("(+ 1 2)"))
	require.Equal(t, domain.OutcomeValues, res.Kind)
	assert.Empty(t, res.Results)

	res = a.Evaluate(context.Background(), domain.NewInputUnit("!(match &self (+ $a $b) $b)"))
	require.Equal(t, domain.OutcomeValues, res.Kind)
	assert.Equal(t, [][]string{{"2"}}, res.Results)
}

func TestAdapter_NotBusy(t *testing.T) {
	a, err := native.New()
	require.NoError(t, err)
	defer a.Close()

	var _ ports.BusyReporter = a
	a.Evaluate(context.Background(), domain.NewInputUnit("!(+ 1 1)"))
	assert.False(t, a.Busy())
}
