// Package hosted is the Engine Adapter that reaches the engine through an
// embedded JavaScript runtime.
//
// The runtime loads the bundled metta.js library, which wraps the engine
// binding. Before first use the library version is checked against the
// supported range; a mismatch is a startup failure (domain.ErrVersionMismatch).
// Extension scripts can add grounded operations written in JavaScript.
package hosted

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/metta/internal/logging"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine"
	"github.com/aretw0/metta/pkg/metta"
	"github.com/dop251/goja"
)

// Name of the backend.
const Name = "hosted"

// Supported library versions: MinLibraryVersion <= v < MaxLibraryVersion.
const (
	MinLibraryVersion = "0.2.0"
	MaxLibraryVersion = "0.3.0"
)

const (
	bindingName  = "__hyperon"
	libraryName  = "metta"
	closeTimeout = time.Second
)

//go:embed metta.js
var librarySource string

// Adapter owns the embedded runtime and the engine loaded into it.
//
// The runtime is not goroutine-safe; every call into it happens on the
// dispatcher worker that holds the engine.
type Adapter struct {
	vm      *goja.Runtime
	lib     *goja.Object
	run     goja.Callable
	runner  *metta.Runner
	disp    *engine.Dispatcher
	version string
	logger  *slog.Logger

	// ctx of the evaluation in flight, read by the binding.
	runCtx context.Context
}

type config struct {
	logger     *slog.Logger
	source     string
	extensions []string
	dispatcher []engine.DispatcherOption
	runner     []metta.Option
}

// Option configures the Adapter.
type Option func(*config)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGrace sets how long a cancelled evaluation may take to stop before its
// worker is abandoned.
func WithGrace(d time.Duration) Option {
	return func(c *config) {
		c.dispatcher = append(c.dispatcher, engine.WithGrace(d))
	}
}

// WithObserver reports abandoned workers (metrics).
func WithObserver(o engine.Observer) Option {
	return func(c *config) {
		c.dispatcher = append(c.dispatcher, engine.WithObserver(o))
	}
}

// WithOutput sets where println! writes.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.runner = append(c.runner, metta.WithOutput(w))
	}
}

// WithWorkingDir sets the directory import! resolves against.
func WithWorkingDir(dir string) Option {
	return func(c *config) {
		c.runner = append(c.runner, metta.WithWorkingDir(dir))
	}
}

// WithLibrarySource replaces the bundled library. The script must define a
// global `metta` object with a `version` string and a `run` function.
func WithLibrarySource(src string) Option {
	return func(c *config) {
		c.source = src
	}
}

// WithExtensions loads JavaScript files after the library.
func WithExtensions(paths ...string) Option {
	return func(c *config) {
		c.extensions = append(c.extensions, paths...)
	}
}

// New starts the runtime, loads the library and checks its version.
func New(opts ...Option) (*Adapter, error) {
	c := &config{logger: logging.NewNop(), source: librarySource}
	for _, opt := range opts {
		opt(c)
	}

	a := &Adapter{
		vm:     goja.New(),
		runner: metta.New(c.runner...),
		disp:   engine.NewDispatcher(append([]engine.DispatcherOption{engine.WithDispatcherLogger(c.logger)}, c.dispatcher...)...),
		logger: c.logger,
		runCtx: context.Background(),
	}

	if err := a.installBinding(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEngineInit, err)
	}
	if _, err := a.vm.RunScript("metta.js", c.source); err != nil {
		return nil, fmt.Errorf("%w: loading library: %v", domain.ErrEngineInit, err)
	}
	if err := a.loadLibrary(); err != nil {
		return nil, err
	}
	for _, path := range c.extensions {
		if err := a.loadExtension(path); err != nil {
			return nil, err
		}
	}

	a.logger.Debug("hosted engine ready", "library", a.version, "engine", metta.Version, "extensions", len(c.extensions))
	return a, nil
}

func (a *Adapter) loadLibrary() error {
	val := a.vm.Get(libraryName)
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return fmt.Errorf("%w: library does not define %q", domain.ErrEngineInit, libraryName)
	}
	lib := val.ToObject(a.vm)

	version := lib.Get("version")
	if version == nil || goja.IsUndefined(version) {
		return fmt.Errorf("%w: library does not declare a version", domain.ErrVersionMismatch)
	}
	if err := engine.CheckVersion(version.String(), MinLibraryVersion, MaxLibraryVersion); err != nil {
		return err
	}

	run, ok := goja.AssertFunction(lib.Get("run"))
	if !ok {
		return fmt.Errorf("%w: library has no run function", domain.ErrEngineInit)
	}

	a.lib = lib
	a.run = run
	a.version = version.String()
	return nil
}

func (a *Adapter) loadExtension(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading extension: %v", domain.ErrEngineInit, err)
	}
	if _, err := a.vm.RunScript(path, string(src)); err != nil {
		return fmt.Errorf("%w: loading extension %s: %v", domain.ErrEngineInit, path, err)
	}
	a.logger.Debug("extension loaded", "path", path)
	return nil
}

// Evaluate runs unit through the library's run entry point.
func (a *Adapter) Evaluate(ctx context.Context, unit domain.InputUnit) domain.Outcome {
	start := time.Now()
	out := a.disp.Run(ctx, func(ctx context.Context) domain.Outcome {
		return a.evaluate(ctx, unit)
	})
	out.Duration = time.Since(start)
	return out
}

func (a *Adapter) evaluate(ctx context.Context, unit domain.InputUnit) domain.Outcome {
	a.vm.ClearInterrupt()
	a.runCtx = ctx
	defer func() { a.runCtx = context.Background() }()

	done := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-ctx.Done():
			a.vm.Interrupt(domain.ErrInterrupted)
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-watched
	}()

	val, err := a.run(a.lib, a.vm.ToValue(unit.Source))
	if ctx.Err() != nil {
		return domain.Cancelled()
	}
	if err != nil {
		return domain.Failed(a.engineError(err))
	}

	results := [][]string{}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return domain.Values(results)
	}
	if err := a.vm.ExportTo(val, &results); err != nil {
		return domain.Failed(&domain.EngineError{Message: fmt.Sprintf("library returned malformed results: %v", err)})
	}
	return domain.Values(results)
}

// engineError maps a thrown exception to a structured error. MettaError
// objects carry the source position of syntax errors.
func (a *Adapter) engineError(err error) *domain.EngineError {
	ex, ok := err.(*goja.Exception)
	if !ok {
		return &domain.EngineError{Message: err.Error()}
	}

	obj, ok := ex.Value().(*goja.Object)
	if !ok {
		return &domain.EngineError{Message: ex.Value().String()}
	}
	if name := obj.Get("name"); name == nil || name.String() != "MettaError" {
		return &domain.EngineError{Message: ex.Value().String()}
	}

	e := &domain.EngineError{Message: obj.Get("message").String()}
	line, col := obj.Get("line"), obj.Get("column")
	if line != nil && col != nil && line.ToInteger() > 0 {
		e.Location = &domain.Location{Line: int(line.ToInteger()), Column: int(col.ToInteger())}
	}
	return e
}

// Backend returns "hosted".
func (a *Adapter) Backend() string { return Name }

// Busy reports whether an abandoned evaluation still holds the runtime.
func (a *Adapter) Busy() bool { return a.disp.Busy() }

// Version returns the version declared by the loaded library.
func (a *Adapter) Version() string { return a.version }

// Close waits briefly for an abandoned evaluation to finish.
func (a *Adapter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.disp.Wait(ctx); err != nil {
		a.logger.Warn("closing with an evaluation still running", "error", err)
		a.vm.Interrupt(domain.ErrInterrupted)
	}
	return nil
}
