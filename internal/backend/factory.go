package backend

import (
	"context"
	"fmt"
	"log/slog"

	"driverlog/internal/adapters"
	"driverlog/internal/amqp"
	"driverlog/internal/ledger/memory"
	"driverlog/internal/services"
	gsheet "driverlog/internal/sheets/google"
	"driverlog/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	// AMQP is optional: without it records stay local until the worker's
	// pending scan picks them up.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	recordService := services.NewRecordService(sqliteRepo, amqpClient)
	adapter := adapters.NewSQLiteAdapter(sqliteRepo, recordService)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend: adapter,
		Cleanup: recordService.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*BackendResult, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &BackendResult{
		Backend: cli,
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.New()

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Backend: store,
		Cleanup: nil,
	}, nil
}
