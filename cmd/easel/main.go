package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/easelhq/easel/cmd"
)

func main() {
	// Interrupts cancel the context so serve sessions shut down cleanly and
	// flush their final document save.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
