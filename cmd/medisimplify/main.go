// Command medisimplify is the local document store for the medical
// document simplification pipeline.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/cli"
	"github.com/medisimplify/medisimplify/internal/logger"
)

func main() {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx, os.Getenv)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	defer app.Close()

	cli.SetServices(app.services)
	if err := cli.ExecuteContext(ctx); err != nil {
		app.Close()
		os.Exit(1)
	}
}
