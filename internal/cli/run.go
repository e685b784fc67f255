package cli

import (
	"io"
	"os"
	"time"

	"github.com/aretw0/metta/internal/backend"
	"github.com/aretw0/metta/pkg/cancel"
	"github.com/aretw0/metta/pkg/ports"
)

// Options holds everything one invocation of the shell needs. Zero values
// fall back to the config file and then to the defaults.
type Options struct {
	ConfigPath  string
	HistoryPath string
	MetricsAddr string
	Debug       bool
	JSON        bool
	NoBanner    bool

	// Eval or File select batch mode. File "-" reads the script from Stdin.
	Eval string
	File string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewEngine builds the Engine Adapter (backend.New by default).
	NewEngine EngineFactory
	// InstallSignals routes process interrupts to the controller and returns
	// the function that stops doing so.
	InstallSignals func(*cancel.Controller) (func(), error)
	// Exit terminates the process after an escalated interrupt (os.Exit).
	Exit func(code int)
}

// EngineFactory creates the Engine Adapter for a session.
type EngineFactory func(backend.Config) (ports.Engine, error)

func (o Options) withDefaults() Options {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.NewEngine == nil {
		o.NewEngine = backend.New
	}
	if o.InstallSignals == nil {
		o.InstallSignals = installSignals
	}
	if o.Exit == nil {
		o.Exit = os.Exit
	}
	return o
}

// batch reports whether the invocation evaluates a script instead of
// starting the interactive loop.
func (o Options) batch() bool {
	return o.Eval != "" || o.File != ""
}

func installSignals(c *cancel.Controller) (func(), error) {
	h := cancel.NewSignalHandler(c)
	if err := h.Install(); err != nil {
		return nil, err
	}
	return h.Uninstall, nil
}

// historyFlushTimeout bounds the history save on exit.
const historyFlushTimeout = 2 * time.Second
