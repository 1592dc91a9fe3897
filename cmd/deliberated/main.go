// Command deliberated serves the deliberation API: it accepts theses over
// HTTP, runs the three-round protocol against OpenRouter-hosted models in
// the background, and lets clients poll for the structured verdict.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/deliberate-api/deliberate/internal/api"
	"github.com/deliberate-api/deliberate/internal/config"
	"github.com/deliberate-api/deliberate/internal/deliberation"
	"github.com/deliberate-api/deliberate/internal/job"
	"github.com/deliberate-api/deliberate/internal/provider"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		addr       string
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (optional)")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	// The one fatal configuration failure: no API key means no provider,
	// surfaced before any deliberation can start.
	p, err := provider.NewOpenRouter()
	if err != nil {
		return fmt.Errorf("initializing provider: %w", err)
	}

	engine := deliberation.NewEngine(p, logger)
	store := job.NewStore()
	server := api.NewServer(store, engine, cfg.Models.Default, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("deliberate API starting", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("deliberate API shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	return slog.New(handler)
}
