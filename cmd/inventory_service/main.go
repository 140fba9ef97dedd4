package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	catalogApi "github.com/lkh0118/order-inventory/internal/catalog/api"
	catalogService "github.com/lkh0118/order-inventory/internal/catalog/service"
	ledgerApi "github.com/lkh0118/order-inventory/internal/ledger/api"
	ledgerService "github.com/lkh0118/order-inventory/internal/ledger/service"
	orderApi "github.com/lkh0118/order-inventory/internal/order/api"
	orderService "github.com/lkh0118/order-inventory/internal/order/service"
	"github.com/lkh0118/order-inventory/internal/platform/config"
	"github.com/lkh0118/order-inventory/internal/platform/database"
	"github.com/lkh0118/order-inventory/internal/platform/httpserver"
	"github.com/lkh0118/order-inventory/internal/platform/logger"
	"github.com/lkh0118/order-inventory/internal/platform/memstore"
	"github.com/lkh0118/order-inventory/internal/platform/txn"
)

func main() {
	if err := run(); err != nil {
		logger.Error("Inventory Service exited with error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run() error {
	// Load Config
	cfg := config.Load()
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("invalid logger settings: %w", err)
	}
	logger.Info("Starting Inventory Service...", "backend", cfg.DB.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup Store
	store, closeStore, err := openStore(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer closeStore()

	// Setup Dependencies
	coord := txn.NewCoordinator(store, txn.Policy{
		MaxAttempts: cfg.Tx.MaxAttempts,
		BaseBackoff: cfg.Tx.BaseBackoff,
		MaxBackoff:  cfg.Tx.MaxBackoff,
		Timeout:     cfg.Tx.Timeout,
	})
	ledger := ledgerService.NewLedgerService(coord)
	catalog := catalogService.NewCatalogService(coord, ledger)
	orders := orderService.NewOrderService(coord)

	if cfg.ReconcileSchedule != "" {
		reconciler := ledgerService.NewReconciler(ledger, cfg.ReconcileSchedule)
		if err := reconciler.Start(); err != nil {
			return err
		}
		defer reconciler.Stop()
	}

	// Setup Gin Router
	router := httpserver.NewRouter(
		catalogApi.NewProductHandler(catalog),
		ledgerApi.NewStockHandler(ledger),
		orderApi.NewOrderHandler(orders),
	)
	srv := &http.Server{Addr: cfg.Server.Port, Handler: router}

	logger.Info("Inventory Service running on port " + cfg.Server.Port)
	return httpserver.Serve(ctx, srv, cfg.Server.ShutdownTimeout)
}

func openStore(ctx context.Context, cfg config.DBConfig) (txn.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on shutdown")
		return memstore.New(), func() {}, nil
	case "postgres":
		db, err := database.Connect(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return txn.NewPostgresStore(db, cfg.LockTimeout), closeDB(db), nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Backend)
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", err)
		}
	}
}
