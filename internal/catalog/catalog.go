// Package catalog wires the country catalog: sources, estimator, store,
// summary renderer, refresh pipeline, service and HTTP handler.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"countrycatalog/internal/catalog/estimate"
	"countrycatalog/internal/catalog/handler"
	catalogmetrics "countrycatalog/internal/catalog/metrics"
	"countrycatalog/internal/catalog/refresh"
	"countrycatalog/internal/catalog/service"
	"countrycatalog/internal/catalog/sources"
	"countrycatalog/internal/catalog/store"
	"countrycatalog/internal/catalog/summary"
	"countrycatalog/internal/platform/config"
)

// Store is every store capability the module needs.
type Store interface {
	service.CatalogStore
	refresh.Store
}

// Deps are the shared resources the module is built from. Pool and Redis
// are optional: without Pool the catalog is kept in memory, without Redis
// the refresh lock is process-local.
type Deps struct {
	Config     *config.Config
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Pool       *pgxpool.Pool
	Redis      goredis.UniversalClient
}

// Module is the assembled catalog.
type Module struct {
	Store        Store
	Orchestrator *refresh.Orchestrator
	Service      *service.Service
	Handler      *handler.Handler
}

// New assembles the module. With a database pool it bootstraps the schema.
func New(ctx context.Context, deps Deps) (*Module, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := catalogmetrics.New(deps.Registerer)

	st, err := newStore(ctx, deps.Pool)
	if err != nil {
		return nil, err
	}

	multiplier, err := newMultiplier(cfg.Estimate)
	if err != nil {
		return nil, err
	}

	client := sources.NewClient(cfg.Sources.CountriesURL, cfg.Sources.RatesURL,
		sources.WithTimeout(cfg.Sources.Timeout),
		sources.WithLogger(logger),
		sources.WithLatencyObserver(m.ObserveSourceLatency),
	)

	var locker refresh.Locker = refresh.NewLocalLocker()
	if deps.Redis != nil {
		locker = refresh.NewRedisLocker(deps.Redis, cfg.Refresh.LockKey, cfg.Refresh.LockTTL, logger)
	}

	orchestrator := refresh.New(
		client,
		estimate.New(multiplier),
		st,
		summary.NewRenderer(cfg.Summary.ImagePath, logger),
		refresh.WithLogger(logger),
		refresh.WithMetrics(m),
		refresh.WithLocker(locker),
		refresh.WithConcurrentFetch(cfg.Refresh.FetchConcurrently),
	)

	svc := service.New(st, orchestrator, cfg.Summary.ImagePath,
		service.WithLogger(logger),
		service.WithNameMatchMode(cfg.Catalog.NameMatchMode),
	)

	return &Module{
		Store:        st,
		Orchestrator: orchestrator,
		Service:      svc,
		Handler:      handler.New(svc, logger),
	}, nil
}

func newStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	if pool == nil {
		return store.NewInMemory(), nil
	}
	pg := store.NewPostgres(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return pg, nil
}

func newMultiplier(cfg config.EstimateConfig) (estimate.Multiplier, error) {
	switch cfg.Mode {
	case config.EstimateModeRandom:
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		r, err := estimate.NewRandom(cfg.Min, cfg.Max, seed)
		if err != nil {
			return nil, fmt.Errorf("configure estimate multiplier: %w", err)
		}
		return r, nil
	default:
		return estimate.Fixed(cfg.Multiplier), nil
	}
}
