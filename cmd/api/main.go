package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/doctorportal/internal/auth"
	"github.com/geocoder89/doctorportal/internal/availability"
	"github.com/geocoder89/doctorportal/internal/cache"
	"github.com/geocoder89/doctorportal/internal/config"
	"github.com/geocoder89/doctorportal/internal/db"
	httpx "github.com/geocoder89/doctorportal/internal/http"
	"github.com/geocoder89/doctorportal/internal/notifications"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/geocoder89/doctorportal/internal/repo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "doctorportal-api",
			Endpoint:    cfg.OTelEndpoint,
			Env:         cfg.Env,
		})
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	store, err := repo.Open(ctx, cfg, prom)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := seed(ctx, cfg, store, log); err != nil {
		return err
	}

	c, closeCache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	if cfg.IssuePolicy == config.IssuePolicyOpen {
		log.Warn("ISSUE_POLICY=open: any profile save mints a token for the given email")
	}

	var draining atomic.Bool

	router := httpx.NewRouter(httpx.Deps{
		Config:     cfg,
		Logger:     log,
		Store:      store,
		Calculator: availability.NewCalculator(store.Services, store.Bookings, c),
		Tokens:     auth.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Notifier:   buildNotifier(cfg, log),
		Prom:       prom,
		Gatherer:   reg,
		Draining:   draining.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", store.Driver, "cache", cfg.CacheDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serveErr:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}

	log.Info("server shutting down")
	draining.Store(true)

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

func seed(ctx context.Context, cfg config.Config, store *repo.Store, log *slog.Logger) error {
	if cfg.CatalogFile != "" {
		n, err := db.SeedCatalog(ctx, store.Services, cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("catalog seeded", "services", n, "file", cfg.CatalogFile)
	}

	promoted, err := db.EnsureAdminUser(ctx, store.Users, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if promoted {
		log.Info("bootstrap admin promoted", "email", cfg.AdminEmail)
	}
	return nil
}

func buildCache(ctx context.Context, cfg config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheDriver {
	case config.CacheRedis:
		rdb := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		c := cache.NewRedis(rdb, cfg.CacheTTL)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return c, func() { _ = c.Close() }, nil

	case config.CacheNone:
		return cache.Nop{}, func() {}, nil
	}

	return cache.New(cfg.CacheTTL), func() {}, nil
}

func buildNotifier(cfg config.Config, log *slog.Logger) notifications.Notifier {
	var inner notifications.Notifier = notifications.NewLogNotifier(log)

	if cfg.SMTPHost != "" {
		inner = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	return notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
	})
}
