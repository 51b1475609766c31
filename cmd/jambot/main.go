package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dkozyrev/jambot/internal/bot"
	"github.com/dkozyrev/jambot/internal/diag"
	_ "github.com/dkozyrev/jambot/internal/modules/music"
	_ "github.com/dkozyrev/jambot/internal/modules/status"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/jambot
var version = "dev"

func main() {
	// Configure JSON logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load .env if present; real environments set variables directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	slog.Info("starting jambot", "version", version)

	// Load configuration
	cfg, err := bot.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create and configure bot
	b := bot.NewBot(cfg)
	b.LoadModules()

	// Start bot
	if err := b.Start(); err != nil {
		slog.Error("failed to start bot", "error", err)
		os.Exit(1)
	}

	// Start diagnostics endpoint when configured
	var diagServer *diag.Server
	if cfg.DiagAddr != "" {
		var counters []diag.SessionCounter
		for _, mod := range bot.Modules() {
			if counter, ok := mod.(diag.SessionCounter); ok {
				counters = append(counters, counter)
			}
		}
		diagServer = diag.NewServer(cfg.DiagAddr, counters...)
		diagServer.Start()
	}

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	if diagServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := diagServer.Shutdown(ctx); err != nil {
			slog.Warn("failed to shutdown diagnostics server", "error", err)
		}
		cancel()
	}
	if err := b.Stop(); err != nil {
		slog.Error("failed to shutdown", "error", err)
	}

	slog.Info("completed bot shutdown")
	os.Exit(0)
}
