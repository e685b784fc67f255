//go:build !hosted

package backend

import (
	"github.com/aretw0/metta/pkg/engine/native"
	"github.com/aretw0/metta/pkg/ports"
)

// Name of the compiled-in backend.
const Name = native.Name

// New creates the native Engine Adapter.
func New(cfg Config) (ports.Engine, error) {
	opts := []native.Option{
		native.WithLogger(cfg.Logger),
		native.WithGrace(cfg.Grace),
	}
	if cfg.Observer != nil {
		opts = append(opts, native.WithObserver(cfg.Observer))
	}
	if cfg.Output != nil {
		opts = append(opts, native.WithOutput(cfg.Output))
	}
	if cfg.WorkDir != "" {
		opts = append(opts, native.WithWorkingDir(cfg.WorkDir))
	}
	if len(cfg.Extensions) > 0 && cfg.Logger != nil {
		cfg.Logger.Warn("extensions are only loaded by the hosted backend", "count", len(cfg.Extensions))
	}
	a, err := native.New(opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}
