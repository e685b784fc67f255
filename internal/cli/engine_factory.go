package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/metta/internal/backend"
	"github.com/aretw0/metta/internal/config"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine"
	"github.com/aretw0/metta/pkg/ports"
)

// createEngine starts the compiled-in Engine Adapter. Any failure, including
// a hosted library outside the supported version range, is an adapter
// initialisation error (exit 3).
func createEngine(opts Options, cfg config.Config, logger *slog.Logger, observer engine.Observer) (ports.Engine, error) {
	wd, _ := os.Getwd()
	eng, err := opts.NewEngine(backend.Config{
		Logger:     logger,
		Grace:      cfg.Cancel.Grace,
		Observer:   observer,
		Output:     opts.Stdout,
		WorkDir:    wd,
		Extensions: cfg.Hosted.Extensions,
	})
	if err != nil {
		return nil, &domain.ExitError{
			Code: domain.ExitAdapterInit,
			Err:  fmt.Errorf("error initializing %s engine: %w", backend.Name, err),
		}
	}
	logger.Info("engine ready", "backend", eng.Backend(), "version", eng.Version())
	return eng, nil
}
