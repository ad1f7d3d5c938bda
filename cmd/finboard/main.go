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

	"finboard/internal/amqp"
	"finboard/internal/auth"
	"finboard/internal/config"
	apphttp "finboard/internal/http"
	"finboard/internal/plaid"
	"finboard/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

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

	var verifier auth.Verifier
	if cfg.AuthUserInfoURL != "" {
		verifier = auth.NewHTTPVerifier(cfg.AuthUserInfoURL, cfg.AuthCacheSize, cfg.AuthCacheTTL)
		logger.Info("Using userinfo endpoint for authentication", "url", cfg.AuthUserInfoURL)
	} else {
		static, err := auth.ParseStaticTokens(cfg.AuthStaticTokens)
		if err != nil {
			logger.Error("Failed to parse AUTH_STATIC_TOKENS", "error", err)
			os.Exit(1)
		}
		if len(static) == 0 {
			logger.Warn("No authentication configured - all API requests will be rejected")
		}
		verifier = static
	}

	// Plaid is optional; without credentials the bank endpoints answer 503.
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

	// The queue hands bank syncs and sheet exports to the worker.
	var queue apphttp.Queue
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPBankSyncQueue, cfg.AMQPSheetExportQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		queue = amqpClient
	} else {
		logger.Info("AMQP disabled - background jobs unavailable")
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, verifier, bank, queue)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finboard server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped")
}
