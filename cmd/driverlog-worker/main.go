package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"driverlog/internal/amqp"
	"driverlog/internal/config"
	gsheet "driverlog/internal/sheets/google"
	"driverlog/internal/storage"
	"driverlog/internal/worker"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting driverlog-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// The Google Sheet mirror is optional; without it the worker has nothing
	// to sync and only drains the queue on restart.
	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err = gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sheetsClient == nil {
		logger.Info("No sync target available, idling until shutdown")
		<-ctx.Done()
		return
	}

	syncWorker := worker.NewSyncWorker(sqliteRepo, sheetsClient, sheetsClient, cfg.SyncBatchSize)

	// Records written while the worker was down never got a queue message;
	// catch them before consuming.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeRecordSync(gctx, func(msg *amqp.RecordSyncMessage) error {
			return syncWorker.HandleMessage(gctx, msg)
		})
	})

	// Periodic scan catches records whose queue message was lost.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := syncWorker.ProcessPendingRecords(gctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
