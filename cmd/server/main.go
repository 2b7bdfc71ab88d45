package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brojonat/solwallet-tax/service/config"
	"github.com/brojonat/solwallet-tax/service/metrics"
	"github.com/brojonat/solwallet-tax/service/nats"
	"github.com/brojonat/solwallet-tax/service/pnl"
	"github.com/brojonat/solwallet-tax/service/server"
	"github.com/brojonat/solwallet-tax/service/tax"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	// Fail fast if any config is invalid
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	chain := pnl.FromConfig(cfg, m, logger)

	var publisher nats.Publisher
	if cfg.NATSURL != "" {
		p, err := nats.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to initialize NATS publisher", "error", err)
			os.Exit(1)
		}
		publisher = p
	}

	httpServer := server.New(cfg.ServerAddr, chain, tax.DefaultTable(), publisher, m, logger)

	logger.Info("server initialized, all dependencies ready",
		"helius_url", cfg.HeliusBaseURL,
		"price_feed_url", cfg.PriceFeedURL,
		"gmgn_url", cfg.GmgnBaseURL,
		"nats_enabled", publisher != nil,
		"upstream_timeout", cfg.UpstreamTimeout.String(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
