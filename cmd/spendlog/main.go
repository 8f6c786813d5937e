package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/auth"
	"spendlog/internal/config"
	"spendlog/internal/core"
	apphttp "spendlog/internal/http"
	"spendlog/internal/kv"
	applog "spendlog/internal/log"
	"spendlog/internal/persist"
	"spendlog/internal/services"
	"spendlog/internal/session"
	"spendlog/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.Setup("info", "text").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Fallback key-value store comes up first; everything session-shaped
	// lives on it.
	kvStore, err := kv.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to initialize key-value store", "error", err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	// The primary store may be unavailable; the facade degrades to the
	// fallback, so a failed open is a warning, not a fatal error.
	var primary persist.RecordStore
	sqliteStore, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Warn("Primary store unavailable, running on fallback only",
			"error", err, "path", cfg.SQLiteDBPath)
		primary = unavailableStore{err: err}
	} else {
		primary = sqliteStore
		defer sqliteStore.Close()
	}

	facade := persist.New(primary, kvStore)

	// AMQP is optional; without it, expenses simply stay unsynced.
	var publisher services.Publisher
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync events disabled", "error", err)
		} else {
			publisher = amqpClient
			defer amqpClient.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := services.NewExpenseService(facade, publisher)
	if err := svc.Load(ctx); err != nil {
		logger.Error("Failed to load expense collection", "error", err)
		os.Exit(1)
	}

	markers := session.New(kvStore)
	authSvc := auth.NewService(kvStore, markers)
	authSvc.Restore(ctx)
	logger.Info("Session resolved", "state", authSvc.State().String())

	srv := apphttp.NewServer(cfg.Addr(), svc, authSvc, markers)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

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

	logger.Info("Starting spendlog server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// unavailableStore stands in for a primary store that failed to open, so the
// facade's degrade path handles every request.
type unavailableStore struct{ err error }

func (u unavailableStore) ReplaceAll(_ context.Context, _ []core.Expense) error { return u.err }

func (u unavailableStore) GetAll(_ context.Context) ([]core.Expense, error) { return nil, u.err }
