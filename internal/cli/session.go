package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/metta/internal/config"
	"github.com/aretw0/metta/internal/metrics"
	"github.com/aretw0/metta/pkg/cancel"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine"
	"github.com/aretw0/metta/pkg/history"
	"github.com/aretw0/metta/pkg/ports"
	"github.com/aretw0/metta/pkg/runner"
)

// Run is the bootstrap: it resolves configuration, builds every component,
// runs the interactive loop or a batch script, and releases what it acquired
// on every exit path. The returned error carries the exit code (see
// domain.ExitCode).
func Run(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := createLogger(opts.Debug, cfg.LogLevel, opts.Stderr)
	logger.Debug("bootstrap", "mode", mode(opts), "history", cfg.History.Backend)

	s := &session{opts: opts, cfg: cfg, logger: logger}
	defer s.release()

	var observer engine.Observer
	if cfg.Metrics.Addr != "" {
		s.collector = metrics.NewCollector()
		observer = s.collector
		srv, err := metrics.Start(cfg.Metrics.Addr, s.collector, logger)
		if err != nil {
			return err
		}
		s.onRelease(func() {
			sctx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			_ = srv.Shutdown(sctx)
		})
	}

	eng, err := createEngine(opts, cfg, logger, observer)
	if err != nil {
		return err
	}
	s.engine = eng
	s.onRelease(func() { _ = eng.Close() })

	s.controller = cancel.NewController(s.controllerOptions()...)
	s.onRelease(s.controller.Close)

	uninstall, err := opts.InstallSignals(s.controller)
	if err != nil {
		return &domain.ExitError{Code: domain.ExitSignalSetup, Err: err}
	}
	s.onRelease(uninstall)

	if opts.batch() {
		return s.runBatch(ctx)
	}
	return s.runInteractive(ctx)
}

func mode(opts Options) string {
	if opts.batch() {
		return "batch"
	}
	return "interactive"
}

// session holds the components of one shell run.
type session struct {
	opts       Options
	cfg        config.Config
	logger     *slog.Logger
	engine     ports.Engine
	collector  *metrics.Collector
	controller *cancel.Controller

	log       *history.Log
	store     ports.HistoryStore
	reader    ports.LineReader
	flushOnce sync.Once

	mu          sync.Mutex
	cleanups    []func()
	releaseOnce sync.Once
}

// onRelease registers fn to run on release, in reverse registration order.
func (s *session) onRelease(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// release frees what the session acquired, at most once. It runs when Run
// returns and before an escalated termination.
func (s *session) release() {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		cleanups := s.cleanups
		s.mu.Unlock()
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	})
}

func (s *session) controllerOptions() []cancel.Option {
	opts := []cancel.Option{
		cancel.WithLogger(s.logger),
		cancel.WithEscalation(s.cfg.Cancel.Escalation, s.escalate),
	}
	if s.collector != nil {
		opts = append(opts, cancel.WithObserver(s.collector.ObserveInterrupt))
	}
	return opts
}

func (s *session) runnerOptions(reader ports.LineReader) []runner.Option {
	renderer, help := createRenderers(s.opts)
	opts := []runner.Option{
		runner.WithEngine(s.engine),
		runner.WithReader(reader),
		runner.WithController(s.controller),
		runner.WithOutput(s.opts.Stdout),
		runner.WithRenderer(renderer),
		runner.WithHelpRenderer(help),
		runner.WithPrompts(s.cfg.Prompt, s.cfg.ContinuationPrompt),
		runner.WithLogger(s.logger),
	}
	if s.log != nil {
		opts = append(opts, runner.WithHistory(s.log))
	}
	if s.collector != nil {
		opts = append(opts, runner.WithObserver(s.collector.ObserveOutcome))
	}
	return opts
}

func (s *session) runBatch(ctx context.Context) error {
	unit, err := readScript(s.opts)
	if err != nil {
		return err
	}
	r := runner.NewRunner(s.runnerOptions(nil)...)
	return r.RunBatch(ctx, unit)
}

func (s *session) runInteractive(ctx context.Context) error {
	store, closeStore, err := openHistoryStore(s.cfg)
	if err != nil {
		return err
	}
	s.onRelease(func() { _ = closeStore() })
	s.store = store
	s.log = history.NewLog(s.cfg.History.MaxEntries)
	loadHistory(ctx, store, s.log, s.logger)
	defer s.flushHistory()

	s.reader = createReader(s.opts, s.log)
	defer s.reader.Close()

	printBanner(s.opts, s.cfg, s.engine)
	r := runner.NewRunner(s.runnerOptions(s.reader)...)
	return r.Run(ctx)
}

// flushHistory persists the entries of this session, at most once.
func (s *session) flushHistory() {
	if s.log == nil || s.store == nil {
		return
	}
	s.flushOnce.Do(func() {
		ctx, stop := context.WithTimeout(context.Background(), historyFlushTimeout)
		defer stop()
		if err := s.log.Flush(ctx, s.store); err != nil {
			s.logger.Warn("history not saved", "error", err)
			return
		}
		s.logger.Debug("history saved")
	})
}

// escalate runs when a repeated interrupt was not honoured in time. The
// engine is still busy, so the process is terminated from here once history
// is saved and the session's resources are released.
func (s *session) escalate() {
	s.logger.Warn("evaluation did not stop, terminating")
	fmt.Fprintln(s.opts.Stderr, "evaluation did not stop after repeated interrupts, terminating")
	s.flushHistory()
	if s.reader != nil {
		_ = s.reader.Close()
	}
	s.release()
	s.opts.Exit(domain.ExitInterrupted)
}
