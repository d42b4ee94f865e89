// cmd/farmaprice/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/price-hounds/farmaprice/internal/cli"
)

func main() {
	// Cancel the root context on interrupt so in-flight sessions stop cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
