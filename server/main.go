package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"currency-api/config"
	"currency-api/exchange"
	"currency-api/http"
	"currency-api/ingest"
	"currency-api/provider"
	"currency-api/rates"

	nhttp "net/http"
)

func main() {
	w := log.NewSyncWriter(os.Stderr)
	logger := log.NewLogfmtLogger(w)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	cfg, err := config.Load()
	if err != nil {
		level.Error(logger).Log("msg", "loading config", "err", err)
		os.Exit(1)
	}
	option, _ := cfg.LevelOption()
	logger = level.NewFilter(logger, option)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		level.Error(logger).Log("msg", "exiting", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger log.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.SeedDemoRates {
		if err := rates.Seed(ctx, store, time.Now()); err != nil {
			return err
		}
		level.Info(logger).Log("msg", "seeded demo rates")
	}

	cache := rates.NewCachingStore(cfg.CacheTTL, log.With(logger, "component", "rates_cache"), store)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exchangeService := exchange.NewService(cache)
	exchangeService = exchange.NewInstrumentingService(exchange.NewMetrics(reg), exchangeService)
	exchangeService = exchange.NewLoggingService(log.With(logger, "component", "exchange"), exchangeService)

	handler := http.NewServer(
		exchangeService,
		cache,
		log.With(logger, "component", "http"),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	)
	srv := &nhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		level.Info(logger).Log("msg", "listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return cache.Run(ctx)
	})

	if cfg.Polling() {
		var p provider.Provider = provider.New(cfg.OXRBaseURL, cfg.OXRToken)
		p = provider.NewLoggingProvider(log.With(logger, "component", "oxr"), p)
		poller := ingest.NewPoller(p, cache, cfg.RefreshInterval, log.With(logger, "component", "poller"))
		g.Go(func() error {
			return poller.Run(ctx)
		})
	} else {
		level.Info(logger).Log("msg", "provider polling disabled")
	}

	return g.Wait()
}

// openStore selects the Postgres store when a database is configured and the
// in-memory store otherwise, adding the redis cache when configured.
func openStore(ctx context.Context, cfg config.Config, logger log.Logger) (rates.Store, func(), error) {
	var (
		store   rates.Store
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := rates.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		pg := rates.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		store = pg
		level.Info(logger).Log("msg", "using postgres store")
	} else {
		store = rates.NewMemoryStore()
		level.Info(logger).Log("msg", "using in-memory store")
	}
	store = rates.NewLoggingStore(log.With(logger, "component", "rates_store"), store)

	if cfg.RedisURL != "" {
		client, err := rates.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		store = rates.NewRedisCache(client, cfg.CacheTTL, log.With(logger, "component", "redis"), store)
	}

	return store, closeAll, nil
}
