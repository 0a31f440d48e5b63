package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"driverlog/internal/backend"
	"driverlog/internal/config"
	apphttp "driverlog/internal/http"
	"driverlog/internal/photostore"
	"driverlog/internal/photostore/local"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
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

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", backendCfg.Type.String())
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}
	logger.Info("Data backend initialized", "backend", backendCfg.Type.String())

	var photos photostore.PhotoStore
	if cfg.PhotoDir != "" {
		store, err := local.NewLocalPhotoStore(cfg.PhotoDir)
		if err != nil {
			logger.Error("Failed to initialize photo store", "error", err, "path", cfg.PhotoDir)
			os.Exit(1)
		}
		photos = store
		logger.Info("Photo store initialized", "path", cfg.PhotoDir)
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, result.Backend, result.Backend, photos)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting driverlog server", "port", cfg.Port, "backend", backendCfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
