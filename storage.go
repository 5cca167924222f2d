package main

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/application/checkout"
	domcart "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/order"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/catalogmap"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/redisledger"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/sqlstore"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/config"
)

type catalogStore interface {
	catalog.Reader
	catalog.Writer
}

type ledgerStore interface {
	inventory.Ledger
	catalogmap.StockInitializer
}

// backend is the set of adapters selected by STORAGE_DRIVER and LEDGER_DRIVER.
type backend struct {
	catalog    catalogStore
	ledger     inventory.Ledger
	stock      catalogmap.StockInitializer
	ledgerName string
	carts      domcart.Repository
	orders     domorder.Repository
	work       checkout.UnitOfWork
	close      func() error
}

func openBackend(ctx context.Context, cfg config.Config, log observability.Logger) (*backend, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return openMemory(ctx, cfg, log)
	case config.StoragePostgres:
		return openSQL(ctx, sqlstore.DriverPostgres, cfg.DatabaseURL, log)
	case config.StorageSQLite:
		return openSQL(ctx, sqlstore.DriverSQLite, cfg.SQLitePath, log)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}

func openMemory(ctx context.Context, cfg config.Config, log observability.Logger) (*backend, error) {
	carts := memory.NewCartRepository()
	orders := memory.NewOrderRepository()
	b := &backend{
		catalog: memory.NewCatalog(),
		carts:   carts,
		orders:  orders,
		close:   func() error { return nil },
	}

	var ledger ledgerStore = memory.NewLedger()
	b.ledgerName = "memory"
	if cfg.LedgerDriver == config.LedgerRedis {
		client := redisledger.NewClient(redisledger.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rl := redisledger.New(client, "")
		if err := rl.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("storage: redis ledger: %w", err)
		}
		ledger, b.ledgerName, b.close = rl, "redis", client.Close
		log.Info("redis_ledger_connected", observability.F("addr", cfg.RedisAddr))
	}
	b.ledger, b.stock = ledger, ledger
	b.work = memory.NewUnitOfWork(ledger, orders, carts)
	return b, nil
}

func openSQL(ctx context.Context, driver, dsn string, log observability.Logger) (*backend, error) {
	db, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlstore.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("sql_store_ready", observability.F("driver", driver))

	s := sqlstore.New(db)
	return &backend{
		catalog:    s.Catalog,
		ledger:     s.Ledger,
		stock:      s.Ledger,
		ledgerName: driver,
		carts:      s.Carts,
		orders:     s.Orders,
		work:       s.UnitOfWork,
		close:      db.Close,
	}, nil
}
