package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/metta/pkg/domain"
)

func main() {
	// SIGTERM ends the session cleanly; SIGINT belongs to the cancellation
	// controller.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(domain.ExitCode(err))
}
