package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/minibank/internal/auth"
	"github.com/josh-kwaku/minibank/internal/config"
	"github.com/josh-kwaku/minibank/internal/events"
	"github.com/josh-kwaku/minibank/internal/jobs"
	"github.com/josh-kwaku/minibank/internal/logging"
	"github.com/josh-kwaku/minibank/internal/repository"
	"github.com/josh-kwaku/minibank/internal/service"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("minibank exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init("minibank-api", cfg.LogLevel, cfg.AppEnv, nil)

	maxAmount, err := cfg.MaxAmountDecimal()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	accountRepo := repository.NewAccountRepository(pool)
	txnRepo := repository.NewTransactionRepository(pool)
	idemRepo := repository.NewIdempotencyRepository(pool)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", "error", err)
		}
	}()

	ledger := service.NewLedgerService(accountRepo, txnRepo, repository.NewDB(pool), hasher, publisher, maxAmount)

	scheduler, err := jobs.NewScheduler(cfg.IdempotencyCleanupSchedule, idemRepo, 30*time.Second)
	if err != nil {
		return err
	}
	scheduler.Start()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: routes(routeDeps{
			cfg:       cfg,
			db:        pool,
			ledger:    ledger,
			hasher:    hasher,
			idemCache: idemRepo,
		}),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	scheduler.Stop(shutdownCtx)
	slog.Info("server stopped")
	return nil
}

func newPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		slog.Info("no kafka brokers configured, transaction events disabled")
		return events.NopPublisher{}
	}
	slog.Info("publishing transaction events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}
