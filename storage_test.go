package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/catalogmap"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAndRead(t *testing.T, b *backend) {
	t.Helper()
	ctx := context.Background()

	entries, err := catalogmap.LoadSeed(filepath.Join("seed", "catalog.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	res, err := catalogmap.Apply(ctx, entries, b.catalog, b.stock)
	require.NoError(t, err)
	assert.Equal(t, len(entries), res.Products)

	first := entries[0]
	p, err := b.catalog.Product(ctx, first.Product.ID)
	require.NoError(t, err)
	assert.True(t, first.Product.Price.Equal(p.Price))

	n, err := b.ledger.Available(ctx, first.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Stock, n)

	again, err := catalogmap.Apply(ctx, entries, b.catalog, b.stock)
	require.NoError(t, err)
	assert.Zero(t, again.StockInitialized)
}

func TestOpenBackend_Memory(t *testing.T) {
	b, err := openBackend(context.Background(), config.Config{StorageDriver: config.StorageMemory}, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.close() })

	assert.Equal(t, "memory", b.ledgerName)
	seedAndRead(t, b)
}

func TestOpenBackend_SQLite(t *testing.T) {
	cfg := config.Config{
		StorageDriver: config.StorageSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "checkout.db"),
	}
	b, err := openBackend(context.Background(), cfg, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.close() })

	assert.Equal(t, "sqlite", b.ledgerName)
	seedAndRead(t, b)
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	_, err := openBackend(context.Background(), config.Config{StorageDriver: "mongo"}, observability.NopLogger())
	assert.Error(t, err)
}
