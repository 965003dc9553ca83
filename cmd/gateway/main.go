package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/calebmoura/lumiere-gateway/api/routes"
	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/internal/cart"
	"github.com/calebmoura/lumiere-gateway/internal/catalog"
	"github.com/calebmoura/lumiere-gateway/internal/checkout"
	"github.com/calebmoura/lumiere-gateway/internal/orders"
	"github.com/calebmoura/lumiere-gateway/pkg/config"
	"github.com/calebmoura/lumiere-gateway/pkg/db"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/metrics"
	"github.com/calebmoura/lumiere-gateway/pkg/migrate"
	"github.com/calebmoura/lumiere-gateway/pkg/redis"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
)

const (
	shutdownGrace     = 15 * time.Second
	cartPurgeInterval = 12 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	cartMetrics := metrics.NewCartMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	var authService auth.Service
	upstreamClient, err := upstream.New(cfg.Upstream, logg, upstream.WithUnauthorizedHook(func(ctx context.Context) {
		sess := auth.SessionFromContext(ctx)
		if sess == nil || authService == nil {
			return
		}
		if err := authService.ClearToken(ctx, sess.ID); err != nil {
			logg.Warn(ctx, "failed to clear rejected token")
		}
	}))
	if err != nil {
		logg.Error(context.Background(), "failed to build upstream client", err)
		os.Exit(1)
	}

	authService, err = auth.NewService(auth.ServiceParams{
		Store:    redisClient,
		Upstream: upstreamClient,
		Config:   cfg.Session,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	cartStorage, err := cart.NewGormStorage(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create cart storage", err)
		os.Exit(1)
	}
	carts, err := cart.NewManager(cart.ManagerParams{
		Storage:      cartStorage,
		FlushTimeout: cfg.Cart.FlushTimeout,
		Logger:       logg,
		Metrics:      cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart manager", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(upstreamClient, redisClient, cfg.Catalog, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(upstreamClient, authService)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		API:     upstreamClient,
		Tokens:  authService,
		Config:  cfg.Checkout,
		Logger:  logg,
		Metrics: checkoutMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Upstream:    upstreamClient,
			Idempotency: redisClient,
			AuthService: authService,
			Carts:       carts,
			Catalog:     catalogService,
			Checkout:    checkoutService,
			Orders:      orderService,
			HTTPMetrics: httpMetrics,
			Registry:    registry,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Expired sessions leave cart rows behind; reclaim anything older than
	// the session TTL.
	go func() {
		ticker := time.NewTicker(cartPurgeInterval)
		defer ticker.Stop()
		for {
			cutoff := time.Now().Add(-cfg.Session.TTL)
			if purged, err := cartStorage.PurgeStale(runCtx, cutoff); err != nil {
				logg.Warn(runCtx, "failed to purge stale cart records")
			} else if purged > 0 {
				pctx := logg.WithField(runCtx, "purged", purged)
				logg.Info(pctx, "stale cart records purged")
			}
			select {
			case <-ticker.C:
			case <-runCtx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "gateway stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "error draining http server", err)
	}
	if err := carts.FlushAll(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "error flushing carts", err)
	}

	closeErr := multierr.Combine(redisClient.Close(), dbClient.Close())
	if closeErr != nil {
		logg.Error(shutdownCtx, "error closing clients", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "gateway stopped")
}
