//go:build hosted

package backend

import (
	"github.com/aretw0/metta/pkg/engine/hosted"
	"github.com/aretw0/metta/pkg/ports"
)

// Name of the compiled-in backend.
const Name = hosted.Name

// New creates the hosted Engine Adapter. A library outside the supported
// version range fails with domain.ErrVersionMismatch.
func New(cfg Config) (ports.Engine, error) {
	opts := []hosted.Option{
		hosted.WithLogger(cfg.Logger),
		hosted.WithGrace(cfg.Grace),
		hosted.WithExtensions(cfg.Extensions...),
	}
	if cfg.Observer != nil {
		opts = append(opts, hosted.WithObserver(cfg.Observer))
	}
	if cfg.Output != nil {
		opts = append(opts, hosted.WithOutput(cfg.Output))
	}
	if cfg.WorkDir != "" {
		opts = append(opts, hosted.WithWorkingDir(cfg.WorkDir))
	}
	a, err := hosted.New(opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}
