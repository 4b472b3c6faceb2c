package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"countrycatalog/internal/catalog"
	"countrycatalog/internal/platform/config"
	"countrycatalog/internal/platform/httpserver"
	"countrycatalog/internal/platform/logger"
	"countrycatalog/internal/platform/metrics"
	"countrycatalog/internal/platform/postgres"
	"countrycatalog/internal/platform/redis"
	httptransport "countrycatalog/internal/transport/http"
)

// app holds the process-wide resources shared by every command.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	pool     *pgxpool.Pool
	redis    *redis.Client
	catalog  *catalog.Module
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{cfg: cfg, log: log, registry: registry}

	if cfg.Database.URL != "" {
		a.pool, err = postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.InfoContext(ctx, "using postgres store")
	} else {
		log.WarnContext(ctx, "no database configured, catalog is kept in memory")
	}

	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	var lockClient goredis.UniversalClient
	if a.redis != nil {
		lockClient = a.redis.Client
		log.InfoContext(ctx, "using redis refresh lock", "key", cfg.Refresh.LockKey)
	}

	a.catalog, err = catalog.New(ctx, catalog.Deps{
		Config:     cfg,
		Logger:     log,
		Registerer: registry,
		Pool:       a.pool,
		Redis:      lockClient,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func runServe(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	router := httptransport.NewRouter(httptransport.Options{
		Logger:             a.log,
		Metrics:            metrics.New(a.registry),
		Gatherer:           a.registry,
		CORSAllowedOrigins: a.cfg.Server.CORSAllowedOrigins,
		Health:             a.catalog.Service,
	}, a.catalog.Handler)

	srv := httpserver.New(a.cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting country catalog", "addr", a.cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func runRefresh(ctx context.Context, out io.Writer, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.catalog.Service.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "refreshed %d countries at %s (dropped %d)\n",
		result.TotalSaved, result.LastRefreshedAt.Format(time.RFC3339), result.Dropped)
	if result.RenderErr != nil {
		fmt.Fprintf(out, "summary image not generated: %v\n", result.RenderErr)
	}
	return nil
}

func runStatus(ctx context.Context, out io.Writer, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	status, err := a.catalog.Service.Status(ctx)
	if err != nil {
		return err
	}
	last := "never"
	if status.LastRefreshedAt != nil {
		last = status.LastRefreshedAt.Format(time.RFC3339)
	}
	fmt.Fprintf(out, "countries:       %d\nlast refreshed:  %s\n", status.TotalCountries, last)
	return nil
}
