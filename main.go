package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/agrisense/cropscan/cmd"
)

// main is the entry point for the cropscan application. The signal context
// lets the serve command shut the HTTP server down gracefully on SIGINT or
// SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
