package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(env(map[string]string{"AUTH_HMAC_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "jewelry-checkout", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "0.1", cfg.TaxRate.String())
	assert.True(t, cfg.ShippingFlat.IsZero())
	assert.Equal(t, 5*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"AUTH_HMAC_SECRET": "s3cret",
		"STORAGE_DRIVER":   "SQLite",
		"TAX_RATE":         "0.0825",
		"COMMIT_TIMEOUT":   "750ms",
		"REDIS_DB":         "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, "0.0825", cfg.TaxRate.String())
	assert.Equal(t, 750*time.Millisecond, cfg.CommitTimeout)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_ParseErrors(t *testing.T) {
	_, err := load(env(map[string]string{
		"AUTH_HMAC_SECRET": "s3cret",
		"COMMIT_TIMEOUT":   "soon",
		"RATE_LIMIT_BURST": "many",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMMIT_TIMEOUT")
	assert.Contains(t, err.Error(), "RATE_LIMIT_BURST")
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":          {},
		"postgres without url":    {"AUTH_HMAC_SECRET": "x", "STORAGE_DRIVER": "postgres"},
		"redis ledger with sql":   {"AUTH_HMAC_SECRET": "x", "STORAGE_DRIVER": "sqlite", "LEDGER_DRIVER": "redis", "REDIS_ADDR": "localhost:6379"},
		"redis ledger no addr":    {"AUTH_HMAC_SECRET": "x", "LEDGER_DRIVER": "redis"},
		"unknown storage":         {"AUTH_HMAC_SECRET": "x", "STORAGE_DRIVER": "mongo"},
		"negative tax":            {"AUTH_HMAC_SECRET": "x", "TAX_RATE": "-0.1"},
		"non positive rate limit": {"AUTH_HMAC_SECRET": "x", "RATE_LIMIT_RPS": "0"},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(env(m))
			assert.Error(t, err)
		})
	}
}
