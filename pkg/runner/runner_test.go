package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/metta/pkg/cancel"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine/native"
	"github.com/aretw0/metta/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptReader hands out lines sent on its channel and announces each read.
type scriptReader struct {
	lines chan string
	reads chan string

	mu      sync.Mutex
	history []string
}

func newScriptReader() *scriptReader {
	return &scriptReader{
		lines: make(chan string),
		reads: make(chan string, 64),
	}
}

func (s *scriptReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	s.reads <- prompt
	select {
	case <-ctx.Done():
		return "", domain.ErrInterrupted
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (s *scriptReader) AppendHistory(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
}

func (s *scriptReader) Close() error { return nil }

// send delivers a line once the loop is waiting for it.
func (s *scriptReader) send(t *testing.T, line string) {
	t.Helper()
	select {
	case s.lines <- line:
	case <-time.After(time.Second):
		t.Fatalf("loop did not read %q", line)
	}
}

// awaitRead blocks until the loop issues its next read and returns the prompt.
func (s *scriptReader) awaitRead(t *testing.T) string {
	t.Helper()
	select {
	case p := <-s.reads:
		return p
	case <-time.After(time.Second):
		t.Fatal("loop did not come back to the prompt")
		return ""
	}
}

type fakeEngine struct {
	mu    sync.Mutex
	units []string
	eval  func(ctx context.Context, unit domain.InputUnit) domain.Outcome
}

func (f *fakeEngine) Evaluate(ctx context.Context, unit domain.InputUnit) domain.Outcome {
	f.mu.Lock()
	f.units = append(f.units, unit.Source)
	f.mu.Unlock()
	if f.eval != nil {
		return f.eval(ctx, unit)
	}
	return domain.Values([][]string{{"ok"}})
}

func (f *fakeEngine) Units() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.units...)
}

func (f *fakeEngine) Backend() string { return "fake" }
func (f *fakeEngine) Version() string { return "1.0.0" }
func (f *fakeEngine) Close() error    { return nil }

type session struct {
	runner     *Runner
	reader     *scriptReader
	engine     *fakeEngine
	controller *cancel.Controller
	out        *bytes.Buffer
	done       chan error
}

func startSession(t *testing.T, engine *fakeEngine, opts ...Option) *session {
	t.Helper()
	s := &session{
		reader:     newScriptReader(),
		engine:     engine,
		controller: cancel.NewController(),
		out:        &bytes.Buffer{},
		done:       make(chan error, 1),
	}
	base := []Option{
		WithEngine(engine),
		WithReader(s.reader),
		WithController(s.controller),
		WithOutput(s.out),
	}
	s.runner = NewRunner(append(base, opts...)...)
	go func() { s.done <- s.runner.Run(context.Background()) }()
	return s
}

// finish ends input and returns what Run returned.
func (s *session) finish(t *testing.T) error {
	t.Helper()
	s.reader.awaitRead(t)
	close(s.reader.lines)
	return s.wait(t)
}

func (s *session) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-s.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func (s *session) submit(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		s.reader.awaitRead(t)
		s.reader.send(t, line)
	}
}

func TestRunner_HistoryOrder(t *testing.T) {
	engine := &fakeEngine{}
	s := startSession(t, engine)

	s.submit(t, "!(first)")
	s.submit(t, "(= (second)", "  2)")
	s.submit(t, "!(third)")
	require.NoError(t, s.finish(t))

	want := []string{"!(first)", "(= (second)\n  2)", "!(third)"}
	assert.Equal(t, want, engine.Units())
	assert.Equal(t, want, s.runner.History().Entries())
	assert.Equal(t, want, s.reader.history)
}

func TestRunner_EmptyLinesAreIgnored(t *testing.T) {
	engine := &fakeEngine{}
	s := startSession(t, engine)

	s.submit(t, "", "   ", "\t")
	require.NoError(t, s.finish(t))

	assert.Empty(t, engine.Units())
	assert.Zero(t, s.runner.History().Len())
	assert.Empty(t, s.out.String())
}

func TestRunner_Prompts(t *testing.T) {
	s := startSession(t, &fakeEngine{}, WithPrompts("> ", ".. "))

	assert.Equal(t, "> ", s.reader.awaitRead(t))
	s.reader.send(t, "(a")
	assert.Equal(t, ".. ", s.reader.awaitRead(t))
	s.reader.send(t, "b)")
	require.NoError(t, s.finish(t))
}

func TestRunner_NativeEngine(t *testing.T) {
	adapter, err := native.New()
	require.NoError(t, err)
	defer adapter.Close()

	s := &session{reader: newScriptReader(), out: &bytes.Buffer{}, done: make(chan error, 1)}
	s.runner = NewRunner(WithEngine(adapter), WithReader(s.reader), WithOutput(s.out))
	go func() { s.done <- s.runner.Run(context.Background()) }()

	s.submit(t, "!(+ 1 2)")
	require.NoError(t, s.finish(t))

	assert.Equal(t, "[3]\n", s.out.String())
	assert.Equal(t, []string{"!(+ 1 2)"}, s.runner.History().Entries())
}

// A bare expression is added to the space, not evaluated: it yields an
// empty values outcome, prints nothing and is recorded once.
func TestRunner_BareExpressionIsAddedNotEvaluated(t *testing.T) {
	adapter, err := native.New()
	require.NoError(t, err)
	defer adapter.Close()

	var outcomes []domain.Outcome
	s := &session{reader: newScriptReader(), out: &bytes.Buffer{}, done: make(chan error, 1)}
	s.runner = NewRunner(
		WithEngine(adapter),
		WithReader(s.reader),
		WithOutput(s.out),
		WithObserver(func(out domain.Outcome) { outcomes = append(outcomes, out) }),
	)
	go func() { s.done <- s.runner.Run(context.Background()) }()

	s.submit(t, "(+ 1 2)")
	require.NoError(t, s.finish(t))

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeValues, outcomes[0].Kind)
	assert.Empty(t, outcomes[0].Results)
	assert.Empty(t, s.out.String())
	assert.Equal(t, []string{"(+ 1 2)"}, s.runner.History().Entries())
}

// lateInterruptReader trips the controller after a line was read, before the
// loop arms the next read.
type lateInterruptReader struct {
	*scriptReader
	controller *cancel.Controller
	trigger    string
}

func (l *lateInterruptReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	line, err := l.scriptReader.ReadLine(ctx, prompt)
	if err == nil && line == l.trigger {
		l.controller.Interrupt()
	}
	return line, err
}

func TestRunner_InterruptAfterReadClearsInput(t *testing.T) {
	engine := &fakeEngine{}
	controller := cancel.NewController()
	reader := newScriptReader()
	out := &bytes.Buffer{}
	r := NewRunner(
		WithEngine(engine),
		WithReader(&lateInterruptReader{scriptReader: reader, controller: controller, trigger: "2)"}),
		WithController(controller),
		WithOutput(out),
	)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	primary := reader.awaitRead(t)
	reader.send(t, "!(+ 1")
	reader.awaitRead(t)
	reader.send(t, "2)")
	assert.Equal(t, primary, reader.awaitRead(t), "pending input must be gone")
	reader.send(t, "!(fresh)")
	reader.awaitRead(t)
	close(reader.lines)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"!(fresh)"}, engine.Units())
	assert.Equal(t, "input cleared\n[ok]\n", out.String())
}

// busyEngine reports an abandoned evaluation still holding the engine.
type busyEngine struct {
	*fakeEngine
}

func (busyEngine) Busy() bool { return true }

func TestRunner_NoticeWhileEngineBusy(t *testing.T) {
	engine := &fakeEngine{}
	s := startSession(t, engine, WithEngine(busyEngine{engine}))

	s.submit(t, "!(a)")
	require.NoError(t, s.finish(t))

	assert.Equal(t, []string{"!(a)"}, engine.Units())
	assert.Equal(t, MsgWaiting+"\n[ok]\n", s.out.String())
}

func TestRunner_EngineErrorDoesNotStopLoop(t *testing.T) {
	engine := &fakeEngine{eval: func(_ context.Context, unit domain.InputUnit) domain.Outcome {
		if unit.Source == "!(bad)" {
			return domain.Failed(&domain.EngineError{Message: "boom", Location: &domain.Location{Line: 1, Column: 2}})
		}
		return domain.Values([][]string{{"1", "2"}})
	}}
	s := startSession(t, engine)

	s.submit(t, "!(bad)", "!(good)")
	require.NoError(t, s.finish(t))

	assert.Equal(t, "error at 1:2: boom\n[1, 2]\n", s.out.String())
	assert.Len(t, s.runner.History().Entries(), 2)
}

func TestRunner_InterruptDuringEvaluation(t *testing.T) {
	started := make(chan struct{})
	engine := &fakeEngine{eval: func(ctx context.Context, unit domain.InputUnit) domain.Outcome {
		if unit.Source != "!(loop)" {
			return domain.Values([][]string{{"ok"}})
		}
		close(started)
		<-ctx.Done()
		return domain.Cancelled()
	}}
	s := startSession(t, engine)

	s.submit(t, "!(loop)")
	<-started
	begin := time.Now()
	assert.Equal(t, cancel.EvaluationInFlight, s.controller.State())
	assert.Equal(t, cancel.CancelEvaluation, s.controller.Interrupt())

	s.submit(t, "!(next)")
	assert.Less(t, time.Since(begin), time.Second)
	require.NoError(t, s.finish(t))

	assert.Equal(t, "Interrupted.\n[ok]\n", s.out.String())
	assert.Equal(t, []string{"!(loop)", "!(next)"}, s.runner.History().Entries())
	assert.Equal(t, cancel.Idle, s.controller.State())
}

func TestRunner_IdleInterruptClearsInput(t *testing.T) {
	engine := &fakeEngine{}
	s := startSession(t, engine)

	s.submit(t, "(unfinished")
	s.reader.awaitRead(t)
	assert.Equal(t, cancel.ClearInput, s.controller.Interrupt())

	s.submit(t, "!(fresh)")
	require.NoError(t, s.finish(t))

	assert.Equal(t, []string{"!(fresh)"}, engine.Units())
	assert.Equal(t, "input cleared\n[ok]\n", s.out.String())
}

func TestRunner_IdleInterruptWithoutInput(t *testing.T) {
	s := startSession(t, &fakeEngine{})

	s.reader.awaitRead(t)
	s.controller.Interrupt()
	require.NoError(t, s.finish(t))

	assert.Equal(t, "\n", s.out.String())
}

func TestRunner_EOFInsideExpression(t *testing.T) {
	engine := &fakeEngine{}
	s := startSession(t, engine)

	s.submit(t, "(a (b")
	s.reader.awaitRead(t)
	close(s.reader.lines)

	// The pending unit is reported, then the next read sees EOF again.
	require.NoError(t, s.wait(t))
	assert.Empty(t, engine.Units())
	assert.Contains(t, s.out.String(), domain.ErrIncompleteInput.Error())
	assert.Zero(t, s.runner.History().Len())
}

func TestRunner_FatalOutcomeEndsSession(t *testing.T) {
	poisoned := errors.Join(domain.ErrAdapterPoisoned, errors.New("panic"))
	engine := &fakeEngine{eval: func(context.Context, domain.InputUnit) domain.Outcome {
		return domain.FatalOutcome(poisoned)
	}}
	s := startSession(t, engine)

	s.submit(t, "!(crash)")
	err := s.wait(t)
	require.Error(t, err)
	assert.Equal(t, domain.ExitFatal, domain.ExitCode(err))
	assert.Contains(t, s.out.String(), "fatal:")
}

func TestRunner_ContextCancelStopsRead(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	reader := newScriptReader()
	r := NewRunner(WithEngine(&fakeEngine{}), WithReader(reader), WithOutput(io.Discard))

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	<-reader.reads
	stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run ignored context cancellation")
	}
}

func TestRunner_MetaCommands(t *testing.T) {
	engine := &fakeEngine{}
	s := startSession(t, engine, WithHelpRenderer(func(md string) (string, error) {
		return "HELP " + strings.Fields(md)[1], nil
	}))

	s.submit(t, "!(a)")
	s.submit(t, ":history")
	s.submit(t, ":backend")
	s.submit(t, ":help")
	s.submit(t, ":nope")
	s.submit(t, ":QUIT")
	require.NoError(t, s.wait(t))

	out := s.out.String()
	assert.Contains(t, out, "   1  !(a)\n")
	assert.Contains(t, out, "fake (engine 1.0.0)\n")
	assert.Contains(t, out, "HELP metta\n")
	assert.Contains(t, out, "unknown command :nope")
	assert.Equal(t, []string{"!(a)"}, engine.Units())
}

func TestRunner_MetaCommandsInsideExpression(t *testing.T) {
	engine := &fakeEngine{}
	s := startSession(t, engine)

	// Unknown ":words" are ordinary symbols while an expression is open.
	s.submit(t, "(a", ":sym", ")")
	// Known commands still work.
	s.submit(t, "(b", ":clear", "!(c)")
	require.NoError(t, s.finish(t))

	assert.Equal(t, []string{"(a\n:sym\n)", "!(c)"}, engine.Units())
}

func TestRunner_SharedHistoryLog(t *testing.T) {
	log := history.NewLog(2)
	log.Seed([]string{"old"})
	engine := &fakeEngine{}
	s := startSession(t, engine, WithHistory(log))

	s.submit(t, "!(x)", "!(y)")
	require.NoError(t, s.finish(t))

	assert.Equal(t, []string{"!(x)", "!(y)"}, log.Entries())
	assert.Equal(t, []string{"!(x)", "!(y)"}, log.Unsaved())
}

func TestRunner_Observer(t *testing.T) {
	var kinds []domain.OutcomeKind
	var mu sync.Mutex
	s := startSession(t, &fakeEngine{}, WithObserver(func(o domain.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, o.Kind)
	}))

	s.submit(t, "!(a)")
	require.NoError(t, s.finish(t))
	assert.Equal(t, []domain.OutcomeKind{domain.OutcomeValues}, kinds)
}

func TestRunBatch_ExitCodes(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.Outcome
		code    int
	}{
		{"Values", domain.Values([][]string{{"1"}}), domain.ExitOK},
		{"Error", domain.Failed(&domain.EngineError{Message: "bad"}), domain.ExitScriptError},
		{"Cancelled", domain.Cancelled(), domain.ExitInterrupted},
		{"Abandoned", domain.Abandoned(), domain.ExitInterrupted},
		{"Fatal", domain.FatalOutcome(domain.ErrAdapterPoisoned), domain.ExitFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{eval: func(context.Context, domain.InputUnit) domain.Outcome {
				return tt.outcome
			}}
			r := NewRunner(WithEngine(engine), WithOutput(io.Discard))
			err := r.RunBatch(context.Background(), domain.NewInputUnit("!(x)"))
			assert.Equal(t, tt.code, domain.ExitCode(err))
		})
	}
}

func TestRunBatch_Blank(t *testing.T) {
	engine := &fakeEngine{}
	r := NewRunner(WithEngine(engine), WithOutput(io.Discard))
	assert.NoError(t, r.RunBatch(context.Background(), domain.NewInputUnit("  \n")))
	assert.Empty(t, engine.Units())
}

func TestRunBatch_ContextCancelsEvaluation(t *testing.T) {
	engine := &fakeEngine{eval: func(ctx context.Context, _ domain.InputUnit) domain.Outcome {
		<-ctx.Done()
		return domain.Cancelled()
	}}
	r := NewRunner(WithEngine(engine), WithOutput(io.Discard))

	ctx, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	err := r.RunBatch(ctx, domain.NewInputUnit("!(loop)"))
	assert.Equal(t, domain.ExitInterrupted, domain.ExitCode(err))
}
