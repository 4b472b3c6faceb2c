// Package refresh runs the catalog refresh pipeline: fetch both sources,
// estimate and upsert each entry, then regenerate the summary image.
//
// A pass is fail-fast before any write. If either source fails, the pass is
// aborted and the store is untouched. Once merging starts, completed upserts
// are never rolled back; a render failure is reported but does not fail the
// pass.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"countrycatalog/internal/catalog/metrics"
	"countrycatalog/internal/catalog/models"
	"countrycatalog/internal/catalog/summary"
	"countrycatalog/pkg/requestcontext"
)

const tracerName = "countrycatalog/internal/catalog/refresh"

// State is a step of the refresh state machine.
type State string

const (
	StateFetchingCountries State = "fetching_countries"
	StateFetchingRates     State = "fetching_rates"
	StateMerging           State = "merging"
	StateRendering         State = "rendering"
	StateDone              State = "done"
	StateAborted           State = "aborted"
)

// Result summarizes one refresh pass.
type Result struct {
	RunID           string
	TotalSaved      int
	Dropped         int
	LastRefreshedAt time.Time
	// RenderErr is set when the catalog was updated but the summary image
	// could not be regenerated.
	RenderErr error
	States    []State
}

func (r *Result) enter(s State) {
	r.States = append(r.States, s)
}

// Orchestrator sequences one refresh pass.
type Orchestrator struct {
	fetcher    Fetcher
	estimator  Estimator
	store      Store
	renderer   Renderer
	locker     Locker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	clock      func() time.Time
	concurrent bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithLocker(l Locker) Option {
	return func(o *Orchestrator) {
		o.locker = l
	}
}

// WithClock sets the source of last_refreshed_at timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithConcurrentFetch toggles fetching both sources in parallel.
func WithConcurrentFetch(enabled bool) Option {
	return func(o *Orchestrator) {
		o.concurrent = enabled
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// New creates an Orchestrator. Without options it logs to slog.Default,
// uses a process-local lock and fetches both sources concurrently.
func New(fetcher Fetcher, estimator Estimator, store Store, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:    fetcher,
		estimator:  estimator,
		store:      store,
		renderer:   renderer,
		locker:     NewLocalLocker(),
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		clock:      time.Now,
		concurrent: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one refresh pass. It returns ErrRefreshInProgress if another
// pass holds the lock, *SourceUnavailableError if a fetch failed, and
// *InternalError if merging failed. The returned Result is non-nil whenever
// the lock was acquired.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	release, err := o.locker.TryAcquire(ctx)
	if err != nil {
		o.metrics.IncrementRefresh(metrics.OutcomeRejected)
		o.logger.InfoContext(ctx, "refresh rejected", "error", err)
		return nil, err
	}
	defer release()

	started := time.Now()
	defer func() { o.metrics.ObserveRefreshDuration(time.Since(started)) }()

	runID := uuid.NewString()
	ctx = requestcontext.WithRefreshRunID(ctx, runID)
	ctx, span := o.tracer.Start(ctx, "catalog.refresh", trace.WithAttributes(
		attribute.String("refresh.run_id", runID),
	))
	defer span.End()

	result := &Result{RunID: runID}
	o.logger.InfoContext(ctx, "refresh started",
		"run_id", runID,
		"request_id", requestcontext.RequestID(ctx),
	)

	countries, rates, err := o.fetch(ctx, result)
	if err != nil {
		result.enter(StateAborted)
		o.metrics.IncrementRefresh(metrics.OutcomeUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "source unavailable")
		o.logger.WarnContext(ctx, "refresh aborted",
			"run_id", runID,
			"error", err,
		)
		return result, err
	}

	now := o.clock().UTC()
	result.LastRefreshedAt = now

	result.enter(StateMerging)
	saved, dropped, err := o.merge(ctx, countries, rates, now)
	result.TotalSaved, result.Dropped = saved, dropped
	o.metrics.AddRecords(saved, dropped)
	if err != nil {
		o.metrics.IncrementRefresh(metrics.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "merge failed")
		o.logger.ErrorContext(ctx, "refresh merge failed",
			"run_id", runID,
			"saved", saved,
			"dropped", dropped,
			"error", err,
		)
		return result, &InternalError{Stage: StateMerging, Saved: saved, Err: err}
	}

	result.enter(StateRendering)
	if err := o.render(ctx, now); err != nil {
		result.RenderErr = err
		o.metrics.IncrementRenderFailure()
		span.RecordError(err)
		o.logger.WarnContext(ctx, "summary render failed",
			"run_id", runID,
			"error", err,
		)
	}

	result.enter(StateDone)
	o.metrics.IncrementRefresh(metrics.OutcomeSuccess)
	span.SetAttributes(
		attribute.Int("refresh.saved", saved),
		attribute.Int("refresh.dropped", dropped),
	)
	o.logger.InfoContext(ctx, "refresh completed",
		"run_id", runID,
		"saved", saved,
		"dropped", dropped,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result, nil
}

// fetch retrieves both datasets. Both must succeed before anything is
// written. When both fail, the countries failure is reported.
func (o *Orchestrator) fetch(ctx context.Context, result *Result) ([]models.RawCountry, models.Rates, error) {
	if !o.concurrent {
		result.enter(StateFetchingCountries)
		countries, err := o.fetchCountries(ctx)
		if err != nil {
			return nil, nil, err
		}
		result.enter(StateFetchingRates)
		rates, err := o.fetchRates(ctx)
		if err != nil {
			return nil, nil, err
		}
		return countries, rates, nil
	}

	result.enter(StateFetchingCountries)
	result.enter(StateFetchingRates)

	var (
		g                     errgroup.Group
		countries             []models.RawCountry
		rates                 models.Rates
		countriesErr, rateErr error
	)
	g.Go(func() error {
		countries, countriesErr = o.fetchCountries(ctx)
		return nil
	})
	g.Go(func() error {
		rates, rateErr = o.fetchRates(ctx)
		return nil
	})
	_ = g.Wait()

	if countriesErr != nil {
		return nil, nil, countriesErr
	}
	if rateErr != nil {
		return nil, nil, rateErr
	}
	return countries, rates, nil
}

func (o *Orchestrator) fetchCountries(ctx context.Context) ([]models.RawCountry, error) {
	ctx, span := o.tracer.Start(ctx, "catalog.refresh.fetch", trace.WithAttributes(
		attribute.String("source", "countries"),
	))
	defer span.End()

	countries, err := o.fetcher.FetchCountries(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, &SourceUnavailableError{Source: "countries", Err: err}
	}
	span.SetAttributes(attribute.Int("entries", len(countries)))
	return countries, nil
}

func (o *Orchestrator) fetchRates(ctx context.Context) (models.Rates, error) {
	ctx, span := o.tracer.Start(ctx, "catalog.refresh.fetch", trace.WithAttributes(
		attribute.String("source", "rates"),
	))
	defer span.End()

	rates, err := o.fetcher.FetchRates(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, &SourceUnavailableError{Source: "rates", Err: err}
	}
	if rates == nil {
		rates = models.Rates{}
	}
	span.SetAttributes(attribute.Int("entries", len(rates)))
	return rates, nil
}

// merge estimates and upserts entries in source order. Drops are counted,
// not reported. A store error or panic stops the stage.
func (o *Orchestrator) merge(ctx context.Context, countries []models.RawCountry, rates models.Rates, now time.Time) (saved, dropped int, err error) {
	ctx, span := o.tracer.Start(ctx, "catalog.refresh.merge")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during merge: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "merge failed")
		}
	}()

	ctx = requestcontext.WithTime(ctx, now)
	for _, raw := range countries {
		record, ok := o.estimator.Estimate(raw, rates, now)
		if !ok {
			dropped++
			o.logger.DebugContext(ctx, "dropped incomplete entry", "name", raw.Name)
			continue
		}
		if _, err := o.store.Upsert(ctx, record); err != nil {
			return saved, dropped, fmt.Errorf("upsert %q: %w", record.Name, err)
		}
		saved++
	}
	return saved, dropped, nil
}

// render regenerates the summary from the catalog as it now stands.
func (o *Orchestrator) render(ctx context.Context, now time.Time) (err error) {
	ctx, span := o.tracer.Start(ctx, "catalog.refresh.render")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during render: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
		}
	}()

	total, err := o.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count countries: %w", err)
	}
	top, err := o.store.TopByEstimatedGDP(ctx, summary.TopN)
	if err != nil {
		return fmt.Errorf("load top countries: %w", err)
	}

	return o.renderer.Render(ctx, summary.Snapshot{
		Total:       total,
		Top:         top,
		GeneratedAt: now,
	})
}
