package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/config"
	"finboard/internal/plaid"
	"finboard/internal/sheets"
	"finboard/internal/storage"
	"finboard/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting finboard-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Plaid is required for bank syncs; without credentials those
	// messages are dropped by the handler.
	var bank plaid.BankClient
	if cfg.PlaidClientID != "" {
		client, err := plaid.NewClient(plaid.Config{
			ClientID:    cfg.PlaidClientID,
			Secret:      cfg.PlaidSecret,
			Environment: cfg.PlaidEnv,
		}, cfg.SyncPageSize)
		if err != nil {
			logger.Error("Failed to initialize Plaid client", "error", err)
			os.Exit(1)
		}
		bank = client
		logger.Info("Plaid client initialized", "environment", cfg.PlaidEnv)
	} else {
		logger.Info("Plaid disabled - no PLAID_CLIENT_ID provided")
	}

	// Sheet export is optional.
	var exporter sheets.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := sheets.NewClient(ctx, sheets.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPBankSyncQueue, cfg.AMQPSheetExportQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.New(repo, bank, exporter, cfg.SyncLookbackDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeBankSync(gctx, func(msg *amqp.BankSyncMessage) error {
			return w.HandleBankSync(gctx, msg)
		})
	})
	g.Go(func() error {
		return amqpClient.ConsumeSheetExport(gctx, func(msg *amqp.SheetExportMessage) error {
			return w.HandleSheetExport(gctx, msg)
		})
	})

	logger.Info("Worker started",
		"bank_sync_queue", cfg.AMQPBankSyncQueue,
		"sheet_export_queue", cfg.AMQPSheetExportQueue,
		"lookback_days", cfg.SyncLookbackDays)

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
