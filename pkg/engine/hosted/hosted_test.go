package hosted_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine/hosted"
	"github.com/aretw0/metta/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Contract(t *testing.T) {
	a, err := hosted.New()
	require.NoError(t, err)
	defer a.Close()

	ports.RunEngineContract(t, a)
}

func TestAdapter_Identity(t *testing.T) {
	a, err := hosted.New()
	require.NoError(t, err)
	defer a.Close()

	var _ ports.Engine = a
	assert.Equal(t, "hosted", a.Backend())
	assert.Equal(t, "0.2.1", a.Version())
}

func TestNew_VersionGate(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{
			name:    "below minimum",
			source:  `var metta = { version: "0.1.9", run: function (src) { return []; } };`,
			wantErr: domain.ErrVersionMismatch,
		},
		{
			name:    "at maximum",
			source:  `var metta = { version: "0.3.0", run: function (src) { return []; } };`,
			wantErr: domain.ErrVersionMismatch,
		},
		{
			name:    "no version",
			source:  `var metta = { run: function (src) { return []; } };`,
			wantErr: domain.ErrVersionMismatch,
		},
		{
			name:    "garbage version",
			source:  `var metta = { version: "nightly", run: function (src) { return []; } };`,
			wantErr: domain.ErrVersionMismatch,
		},
		{
			name:    "no library object",
			source:  `var other = 1;`,
			wantErr: domain.ErrEngineInit,
		},
		{
			name:    "no run function",
			source:  `var metta = { version: "0.2.0" };`,
			wantErr: domain.ErrEngineInit,
		},
		{
			name:    "script error",
			source:  `var metta = {`,
			wantErr: domain.ErrEngineInit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := hosted.New(hosted.WithLibrarySource(tt.source))
			assert.Nil(t, a)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.ExitAdapterInit, domain.ExitCode(err))
		})
	}
}

func TestNew_StubInsideRange(t *testing.T) {
	stub := `var metta = { version: "0.2.9", run: function (src) { return [[src.length + ""]]; } };`
	a, err := hosted.New(hosted.WithLibrarySource(stub))
	require.NoError(t, err)
	defer a.Close()

	out := a.Evaluate(context.Background(), domain.NewInputUnit("abc"))
	require.Equal(t, domain.OutcomeValues, out.Kind)
	assert.Equal(t, [][]string{{"3"}}, out.Results)
}

func TestAdapter_ThrownExceptionIsEngineError(t *testing.T) {
	stub := `var metta = { version: "0.2.0", run: function (src) { throw new Error("library broke"); } };`
	a, err := hosted.New(hosted.WithLibrarySource(stub))
	require.NoError(t, err)
	defer a.Close()

	out := a.Evaluate(context.Background(), domain.NewInputUnit("!(foo)"))
	require.Equal(t, domain.OutcomeError, out.Kind)
	assert.Contains(t, out.Err.Message, "library broke")
	assert.Nil(t, out.Err.Location)
}

func TestAdapter_RuntimeLoopIsInterrupted(t *testing.T) {
	stub := `var metta = { version: "0.2.0", run: function (src) { for (;;) {} } };`
	a, err := hosted.New(hosted.WithLibrarySource(stub), hosted.WithGrace(time.Second))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := a.Evaluate(ctx, domain.NewInputUnit("!(loop)"))
	assert.Equal(t, domain.OutcomeCancelled, out.Kind, "the runtime honours the interrupt before the grace window")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAdapter_Extensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ext.js")
	ext := `
metta.registerOperation("js-square", function (x) { return x * x; });
metta.registerOperation("js-pair", function (a, b) { return [a, b]; });
metta.registerOperation("js-fail", function () { throw new Error("nope"); });
`
	require.NoError(t, os.WriteFile(path, []byte(ext), 0o644))

	a, err := hosted.New(hosted.WithExtensions(path))
	require.NoError(t, err)
	defer a.Close()

	out := a.Evaluate(context.Background(), domain.NewInputUnit("!(js-square 7)\n!(js-pair foo True)\n!(js-fail)"))
	require.Equal(t, domain.OutcomeValues, out.Kind, "outcome: %+v", out)
	require.Len(t, out.Results, 3)
	assert.Equal(t, []string{"49"}, out.Results[0])
	assert.Equal(t, []string{"foo", "True"}, out.Results[1])
	require.Len(t, out.Results[2], 1)
	assert.Contains(t, out.Results[2][0], "nope")
}

func TestAdapter_BadExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.js")
	require.NoError(t, os.WriteFile(path, []byte(`metta.registerOperation("x", 42);`), 0o644))

	_, err := hosted.New(hosted.WithExtensions(path))
	assert.ErrorIs(t, err, domain.ErrEngineInit)

	_, err = hosted.New(hosted.WithExtensions(filepath.Join(t.TempDir(), "missing.js")))
	assert.ErrorIs(t, err, domain.ErrEngineInit)
}
