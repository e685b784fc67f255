package runner

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	replies chan promptResult
	prompts chan string
	history []string
	closed  bool
}

func newFakePrompter() *fakePrompter {
	return &fakePrompter{
		replies: make(chan promptResult, 8),
		prompts: make(chan string, 8),
	}
}

func (f *fakePrompter) Prompt(p string) (string, error) {
	f.prompts <- p
	res := <-f.replies
	return res.line, res.err
}

func (f *fakePrompter) AppendHistory(item string) { f.history = append(f.history, item) }
func (f *fakePrompter) Close() error              { f.closed = true; return nil }

func TestLinerReader_Errors(t *testing.T) {
	f := newFakePrompter()
	r := newLinerReader(f)
	ctx := context.Background()

	f.replies <- promptResult{line: "(+ 1 2)"}
	line, err := r.ReadLine(ctx, "metta> ")
	require.NoError(t, err)
	assert.Equal(t, "(+ 1 2)", line)
	assert.Equal(t, "metta> ", <-f.prompts)

	f.replies <- promptResult{err: liner.ErrPromptAborted}
	_, err = r.ReadLine(ctx, "metta> ")
	assert.ErrorIs(t, err, domain.ErrInterrupted)

	f.replies <- promptResult{err: io.EOF}
	_, err = r.ReadLine(ctx, "metta> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestLinerReader_KeepsPromptAcrossInterrupt(t *testing.T) {
	f := newFakePrompter()
	r := newLinerReader(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.ReadLine(ctx, "a> ")
		done <- err
	}()
	<-f.prompts
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrInterrupted)
	case <-time.After(time.Second):
		t.Fatal("read was not interrupted")
	}

	// The running prompt delivers to the next read; no second prompt is shown.
	f.replies <- promptResult{line: "late"}
	line, err := r.ReadLine(context.Background(), "b> ")
	require.NoError(t, err)
	assert.Equal(t, "late", line)
	assert.Empty(t, f.prompts)
}

func TestLinerReader_History(t *testing.T) {
	f := newFakePrompter()
	r := newLinerReader(f)

	r.AppendHistory("(= (f $x)\n  (g $x))")
	r.AppendHistory("   ")
	assert.Equal(t, []string{"(= (f $x)   (g $x))"}, f.history)

	require.NoError(t, r.Close())
	assert.True(t, f.closed)
}
