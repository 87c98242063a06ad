// Command credify-stub serves the credential backend API from an in-memory
// registry seeded with demo credentials.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/udaycodespace/credify/internal/config"
	"github.com/udaycodespace/credify/internal/stubapi"
	"github.com/udaycodespace/credify/pkg/logger"
)

func main() {
	configPath := flag.String("config", "credify.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Default().Fatal(err, "Failed to load config")
	}

	registry := stubapi.NewRegistry()
	if err := stubapi.SeedDemo(registry); err != nil {
		logger.Default().Fatal(err, "Failed to seed registry")
	}

	app := stubapi.NewApplication(cfg, stubapi.NewHandler(stubapi.NewService(registry, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		app.Logger.Fatal(err, "Server stopped with error")
	}
}
