// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	LedgerRedis = "redis"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogLevel    string
	LogFile     string

	StorageDriver string
	DatabaseURL   string
	SQLitePath    string

	LedgerDriver  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SeedFile string

	AuthHMACSecret string
	AuthIssuer     string
	AuthAudience   string

	TaxRate       decimal.Decimal
	ShippingFlat  decimal.Decimal
	CommitTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	OTLPEndpoint    string
	ShutdownTimeout time.Duration
}

// Load reads the environment, applies defaults and validates the result.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	cfg := Config{
		ServiceName:     p.str("SERVICE_NAME", "jewelry-checkout"),
		Env:             p.str("ENV", "dev"),
		HTTPAddr:        p.str("HTTP_ADDR", ":8080"),
		LogLevel:        p.str("LOG_LEVEL", "info"),
		LogFile:         p.str("LOG_FILE", ""),
		StorageDriver:   strings.ToLower(p.str("STORAGE_DRIVER", StorageMemory)),
		DatabaseURL:     p.str("DATABASE_URL", ""),
		SQLitePath:      p.str("SQLITE_PATH", "data/checkout.db"),
		LedgerDriver:    strings.ToLower(p.str("LEDGER_DRIVER", "")),
		RedisAddr:       p.str("REDIS_ADDR", ""),
		RedisPassword:   p.str("REDIS_PASSWORD", ""),
		RedisDB:         p.int("REDIS_DB", 0),
		SeedFile:        p.str("SEED_FILE", ""),
		AuthHMACSecret:  p.str("AUTH_HMAC_SECRET", ""),
		AuthIssuer:      p.str("AUTH_ISSUER", ""),
		AuthAudience:    p.str("AUTH_AUDIENCE", ""),
		TaxRate:         p.decimal("TAX_RATE", "0.10"),
		ShippingFlat:    p.decimal("SHIPPING_FLAT", "0"),
		CommitTimeout:   p.duration("COMMIT_TIMEOUT", 5*time.Second),
		RateLimitRPS:    p.float("RATE_LIMIT_RPS", 20),
		RateLimitBurst:  p.int("RATE_LIMIT_BURST", 40),
		OTLPEndpoint:    p.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("config: DATABASE_URL is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	switch c.LedgerDriver {
	case "":
	case LedgerRedis:
		if c.StorageDriver != StorageMemory {
			errs = append(errs, errors.New("config: LEDGER_DRIVER=redis requires memory storage"))
		}
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("config: REDIS_ADDR is required for the redis ledger"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown LEDGER_DRIVER %q", c.LedgerDriver))
	}
	if c.AuthHMACSecret == "" {
		errs = append(errs, errors.New("config: AUTH_HMAC_SECRET is required"))
	}
	if c.TaxRate.IsNegative() {
		errs = append(errs, errors.New("config: TAX_RATE must not be negative"))
	}
	if c.ShippingFlat.IsNegative() {
		errs = append(errs, errors.New("config: SHIPPING_FLAT must not be negative"))
	}
	if c.CommitTimeout <= 0 {
		errs = append(errs, errors.New("config: COMMIT_TIMEOUT must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("config: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) decimal(key, def string) decimal.Decimal {
	v := p.str(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("config: %s: %w", key, err))
		return decimal.RequireFromString(def)
	}
	return d
}
