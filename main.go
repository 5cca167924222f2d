package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/Zhima-Mochi/jewelry-checkout/internal/application/cart"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/application/checkout"
	appinventory "github.com/Zhima-Mochi/jewelry-checkout/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/jewelry-checkout/internal/application/order"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/pricing"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/catalogmap"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/id"
	infraidentity "github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/identity"
	infraobs "github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/observability/zaplogger"
	orderworker "github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/order/worker"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/config"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/keylock"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/jewelry-checkout/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("jewelry-checkout: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zaplogger.New(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	systemLog := logger.With(
		observability.F("trace_id", logging.SystemTraceID),
		observability.F("span_id", logging.SystemSpanID),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.NewTracerProvider(ctx, telemetry.Options{
		ServiceName:  cfg.ServiceName,
		Env:          cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.Env == "dev",
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.RegisterAll(prometrics.New(reg, "", ""), observability.CounterSpecs, observability.HistogramSpecs)
	tel := infraobs.New(infraobs.Options{
		Tracer:     oteltrace.New(cfg.ServiceName),
		Logger:     logger,
		Counters:   counters,
		Histograms: histograms,
	})

	store, err := openBackend(ctx, cfg, systemLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.close() }()

	if cfg.SeedFile != "" {
		entries, err := catalogmap.LoadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		res, err := catalogmap.Apply(ctx, entries, store.catalog, store.stock)
		if err != nil {
			return err
		}
		systemLog.Info("catalog_seeded",
			observability.F("file", cfg.SeedFile),
			observability.F("products", res.Products),
			observability.F("stock_initialized", res.StockInitialized),
		)
	}

	bus := outbox.NewBus(systemLog, outbox.Options{})
	orderworker.New(bus, orderworker.LogNotifier{}, tel).Start()
	bus.Start(ctx)

	verifier, err := infraidentity.NewVerifier(infraidentity.Options{
		Secret:   []byte(cfg.AuthHMACSecret),
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		Leeway:   30 * time.Second,
	})
	if err != nil {
		return err
	}

	ids := id.NewUUIDGenerator()
	locks := keylock.New()
	handler := httppresentation.NewHandler(httppresentation.Options{
		ServiceName: cfg.ServiceName,
		Cart: appcart.NewService(appcart.Deps{
			Carts:   store.carts,
			Catalog: store.catalog,
			Ledger:  store.ledger,
			IDs:     ids,
			Locks:   locks,
		}, tel),
		Checkout: checkout.NewPlaceOrderUseCase(checkout.Deps{
			Carts:     store.carts,
			Orders:    store.orders,
			Catalog:   store.catalog,
			Ledger:    store.ledger,
			Work:      store.work,
			IDs:       ids,
			Locks:     locks,
			Publisher: bus,
		}, checkout.Options{
			Policy:        pricing.Policy{TaxRate: cfg.TaxRate, ShippingFlat: cfg.ShippingFlat},
			CommitTimeout: cfg.CommitTimeout,
		}, tel),
		Orders:         apporder.NewService(store.orders, bus, tel),
		Inventory:      appinventory.NewService(store.ledger, bus, tel),
		Auth:           verifier,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLog.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("storage", cfg.StorageDriver),
			observability.F("ledger", store.ledgerName),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			systemLog.Error("http_server_error", observability.Err(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLog.Error("http_server_shutdown_error", observability.Err(err))
	} else {
		systemLog.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		systemLog.Warn("tracer_shutdown_error", observability.Err(err))
	}
	return nil
}
