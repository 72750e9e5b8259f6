package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/events"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// mockPrices is the illustrative price table backing the portfolio
// return view. Unknown products fall back to a unit price of 1.00.
var mockPrices = map[string]decimal.Decimal{
	"BOVA11": decimal.RequireFromString("120.30"),
	"MXRF11": decimal.RequireFromString("10.45"),
	"CDB DI": decimal.RequireFromString("1052.00"),
}

func main() {
	// Load .env if present; real env vars take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	if cfg.SeedExamples {
		if err := repo.SeedExamples(context.Background()); err != nil {
			logger.Error("Failed to seed example data", "error", err)
			os.Exit(1)
		}
	}

	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Event publishing is optional; the ledger works without it
			logger.Warn("Failed to connect to AMQP, continuing without events", "error", err)
			eventsClient = nil
		} else {
			logger.Info("Connected to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(
		repo,
		eventsClient,
		core.NewStaticPriceSource(mockPrices),
		core.Money{Cents: cfg.PlannedDeductionCents},
	)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close service", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
