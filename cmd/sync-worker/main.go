package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"spendlog/internal/amqp"
	"spendlog/internal/config"
	applog "spendlog/internal/log"
	"spendlog/internal/storage"
	"spendlog/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.Setup("info", "text").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat).WithComponent(applog.ComponentWorker)
	logger.Info("Starting sync-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	sqliteStore, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open primary store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteStore.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	syncWorker := worker.NewSyncWorker(sqliteStore, amqpClient, cfg.SyncBatchSize, cfg.SyncInterval)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
		// Keep going; the periodic sweep retries the backlog.
	}

	if err := syncWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
