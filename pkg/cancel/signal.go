package cancel

import (
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/aretw0/metta/pkg/domain"
)

// Notifier abstracts os/signal so installation can be exercised in tests.
type Notifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type osNotifier struct{}

func (osNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osNotifier) Stop(c chan<- os.Signal)                     { signal.Stop(c) }

// SignalHandler forwards process interrupts to a Controller for the lifetime
// of a session.
type SignalHandler struct {
	controller *Controller
	notifier   Notifier
	signals    []os.Signal

	mu      sync.Mutex
	ch      chan os.Signal
	done    chan struct{}
	stopped sync.WaitGroup
}

// NewSignalHandler intercepts os.Interrupt by default.
func NewSignalHandler(c *Controller, signals ...os.Signal) *SignalHandler {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt}
	}
	return &SignalHandler{controller: c, notifier: osNotifier{}, signals: signals}
}

// WithNotifier swaps the signal source (tests).
func (h *SignalHandler) WithNotifier(n Notifier) *SignalHandler {
	h.notifier = n
	return h
}

// Install starts intercepting signals. Installing twice, or without a
// controller, fails with domain.ErrSignalSetup.
func (h *SignalHandler) Install() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.controller == nil || h.notifier == nil {
		return fmt.Errorf("%w: no controller", domain.ErrSignalSetup)
	}
	if h.ch != nil {
		return fmt.Errorf("%w: already installed", domain.ErrSignalSetup)
	}

	h.ch = make(chan os.Signal, 1)
	h.done = make(chan struct{})
	h.notifier.Notify(h.ch, h.signals...)

	h.stopped.Add(1)
	go func(ch <-chan os.Signal, done <-chan struct{}) {
		defer h.stopped.Done()
		for {
			select {
			case <-ch:
				h.controller.Interrupt()
			case <-done:
				return
			}
		}
	}(h.ch, h.done)
	return nil
}

// Uninstall stops intercepting signals. It is safe to call more than once.
func (h *SignalHandler) Uninstall() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ch == nil {
		return
	}
	h.notifier.Stop(h.ch)
	close(h.done)
	h.stopped.Wait()
	h.ch = nil
}
