// Package main is the entry point for the lotledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"lotledger/internal/config"
	"lotledger/internal/core/tx"
	"lotledger/internal/domain"
	"lotledger/internal/domain/batch"
	"lotledger/internal/domain/ledger"
	"lotledger/internal/domain/material"
	"lotledger/internal/domain/production"
	v1 "lotledger/internal/infrastructure/http/v1"
	"lotledger/internal/infrastructure/metrics"
	"lotledger/internal/infrastructure/storage/memory"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/pkg/logger"
	"lotledger/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Format == "console",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting lotledger server", "driver", cfg.Database.Driver)

	deps, cleanup, err := buildDependencies(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize storage", "error", err)
	}
	defer cleanup()

	// --- Domain services ---
	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	materialService := material.NewService(deps.materials, deps.numerator, deps.txManager, deps.audit)
	batchService := batch.NewService(deps.batches, deps.materials, deps.numerator, deps.txManager, deps.audit)
	stock := batch.NewStock(deps.batches)
	ledgerService := ledger.NewService(deps.entries, stock)
	productionService := production.NewService(deps.orders, ledgerService, deps.numerator, deps.txManager, deps.audit, recorder)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:              deps.pool,
		Logger:            log,
		MaterialService:   materialService,
		BatchService:      batchService,
		ProductionService: productionService,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// dependencies bundles the storage-specific pieces the services need.
type dependencies struct {
	pool      *postgres.Pool
	txManager tx.Manager
	audit     domain.AuditLog
	numerator *numerator.Service

	materials material.Repository
	batches   batch.Repository
	entries   ledger.Repository
	orders    production.Repository
}

// buildDependencies wires either the PostgreSQL or the in-memory storage
// stack, per configuration. The returned cleanup releases pooled resources.
func buildDependencies(ctx context.Context, cfg *config.Config, log *logger.Logger) (*dependencies, func(), error) {
	if cfg.Database.Driver == "memory" {
		store := memory.NewStore()
		return &dependencies{
			txManager: memory.NewTxManager(store),
			numerator: numerator.New(memory.NewSequenceQuerier()),
			materials: memory.NewMaterialRepository(store),
			batches:   memory.NewBatchRepository(store),
			entries:   memory.NewLedgerRepository(store),
			orders:    memory.NewProductionRepository(store),
		}, func() {}, nil
	}

	if err := runMigrations(cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations applied")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("database connection established")

	txOpts := postgres.DefaultTxOptions()
	if cfg.Database.StatementTimeout > 0 {
		txOpts.StatementTimeout = cfg.Database.StatementTimeout
	}
	if cfg.Database.LockTimeout > 0 {
		txOpts.LockTimeout = cfg.Database.LockTimeout
	}
	txManager := postgres.NewTxManagerWithOptions(pool, txOpts)

	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("init audit service: %w", err)
	}

	return &dependencies{
		pool:      pool,
		txManager: txManager,
		audit:     audit,
		numerator: numerator.New(pool),
		materials: postgres.NewMaterialRepo(txManager),
		batches:   postgres.NewBatchRepo(txManager),
		entries:   postgres.NewLedgerRepo(txManager),
		orders:    postgres.NewProductionRepo(txManager),
	}, pool.Close, nil
}

// runMigrations applies pending goose migrations over database/sql.
func runMigrations(cfg config.DatabaseConfig) error {
	db, err := goose.OpenDBWithDriver("pgx", cfg.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return goose.Up(db, cfg.MigrationsDir)
}
