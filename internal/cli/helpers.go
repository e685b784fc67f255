package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/metta/internal/config"
	"github.com/aretw0/metta/internal/logging"
	"github.com/aretw0/metta/internal/presentation/tui"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/history"
	"github.com/aretw0/metta/pkg/persistence/middleware"
	"github.com/aretw0/metta/pkg/ports"
	"github.com/aretw0/metta/pkg/runner"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// createLogger configures the application logger. Without --debug only
// warnings reach stderr, so results on stdout stay clean.
func createLogger(debug bool, level string, w io.Writer) *slog.Logger {
	if debug {
		return logging.NewTo(w, slog.LevelDebug)
	}
	if level == "" {
		return logging.NewNop()
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil || lvl < slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	return logging.NewTo(w, lvl)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.HistoryPath != "" {
		cfg.History.Backend = config.HistoryFile
		cfg.History.Path = opts.HistoryPath
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	if opts.NoBanner {
		cfg.Banner = false
	}
	return cfg, nil
}

// openHistoryStore returns the HistoryStore configured by cfg.History,
// wrapped with redaction and encryption when configured.
func openHistoryStore(cfg config.Config) (ports.HistoryStore, func() error, error) {
	var (
		store     ports.HistoryStore
		closeFunc = func() error { return nil }
	)
	switch cfg.History.Backend {
	case config.HistoryNone:
		return history.NopStore{}, closeFunc, nil
	case config.HistoryRedis:
		r := cfg.History.Redis
		rs := history.NewRedisStore(r.Addr, r.Password, r.DB,
			history.WithKey(r.Key),
			history.WithMaxEntries(cfg.History.MaxEntries),
		)
		store, closeFunc = rs, rs.Close
	default:
		path := cfg.History.Path
		if path == "" {
			path = history.DefaultPath()
		}
		store = history.NewFileStore(path, cfg.History.MaxEntries)
	}

	mws, err := historyMiddleware(cfg.History)
	if err != nil {
		_ = closeFunc()
		return nil, nil, err
	}
	return middleware.Chain(store, mws...), closeFunc, nil
}

func historyMiddleware(cfg config.HistoryConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			fallback, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback key: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, fallback)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// loadHistory seeds log from store. A store that cannot be read costs the
// session its recall list, nothing more.
func loadHistory(ctx context.Context, store ports.HistoryStore, log *history.Log, logger *slog.Logger) {
	entries, err := store.Load(ctx)
	if err != nil {
		logger.Warn("history not loaded", "error", err)
		return
	}
	log.Seed(entries)
	logger.Debug("history loaded", "entries", len(entries))
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// createReader picks the line editor for terminals and the pump reader for
// everything else. Piped sessions get no prompts unless stdout is a terminal.
func createReader(opts Options, log *history.Log) ports.LineReader {
	if isTerminal(opts.Stdin) && isTerminal(opts.Stdout) {
		return runner.NewLinerReader(log.Entries())
	}
	var prompts io.Writer
	if isTerminal(opts.Stdout) {
		prompts = opts.Stdout
	}
	return runner.NewPumpReader(opts.Stdin, prompts)
}

// createRenderers chooses the outcome and help renderers for the output.
func createRenderers(opts Options) (runner.Renderer, runner.ContentRenderer) {
	if opts.JSON {
		return runner.JSONRenderer{}, tui.NewPlainRenderer(80)
	}
	if !isTerminal(opts.Stdout) {
		return &runner.TextRenderer{}, tui.NewPlainRenderer(80)
	}
	width := 80
	if f, ok := opts.Stdout.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = min(w, 120)
		}
	}
	return &runner.TextRenderer{Styles: tui.Styles()}, tui.NewRenderer(width)
}

func printBanner(opts Options, cfg config.Config, eng ports.Engine) {
	if !cfg.Banner || opts.JSON || !isTerminal(opts.Stdout) {
		return
	}
	tui.PrintBanner(opts.Stdout, termenv.EnvColorProfile(), eng.Backend(), eng.Version())
}

// readScript returns the batch source: --eval, a file, or stdin for "-".
func readScript(opts Options) (domain.InputUnit, error) {
	if opts.Eval != "" {
		return domain.NewInputUnit(opts.Eval), nil
	}
	var (
		data []byte
		err  error
	)
	if opts.File == "-" {
		data, err = io.ReadAll(opts.Stdin)
	} else {
		data, err = os.ReadFile(opts.File)
	}
	if err != nil {
		return domain.InputUnit{}, fmt.Errorf("failed to read script: %w", err)
	}
	return domain.NewInputUnit(string(data)), nil
}
