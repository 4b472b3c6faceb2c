// Package service exposes catalog operations to transports. It translates
// store and pipeline failures into domain errors.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/internal/catalog/refresh"
	"countrycatalog/internal/platform/config"
	dErrors "countrycatalog/pkg/domain-errors"
	"countrycatalog/pkg/platform/sentinel"
)

// Client-facing messages.
const (
	MsgCountryNotFound   = "Country not found"
	MsgImageNotFound     = "Summary image not found"
	MsgSourceUnavailable = "External data source unavailable"
	MsgRefreshInProgress = "Refresh already in progress"
)

// CatalogStore is the keyed country store behind the read and delete operations.
type CatalogStore interface {
	Ping(ctx context.Context) error
	FindByName(ctx context.Context, name string) (*models.Country, error)
	FindByNameContains(ctx context.Context, substr string) (*models.Country, error)
	DeleteByName(ctx context.Context, name string) error
	Count(ctx context.Context) (int, error)
	MaxLastRefreshedAt(ctx context.Context) (*time.Time, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Country, error)
}

// Refresher runs one refresh pass.
type Refresher interface {
	Run(ctx context.Context) (*refresh.Result, error)
}

// Service implements the catalog operations.
type Service struct {
	store     CatalogStore
	refresher Refresher
	imagePath string
	matchMode string
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNameMatchMode selects how show and destroy resolve a name:
// config.NameMatchExactFirst or config.NameMatchContains.
func WithNameMatchMode(mode string) Option {
	return func(s *Service) {
		s.matchMode = mode
	}
}

func New(store CatalogStore, refresher Refresher, imagePath string, opts ...Option) *Service {
	s := &Service{
		store:     store,
		refresher: refresher,
		imagePath: imagePath,
		matchMode: config.NameMatchExactFirst,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh runs a refresh pass and maps its failures:
// a held lock is a conflict, a failed source is unavailable, anything
// else is internal.
//
// The pass is detached from the caller's cancellation. A client hanging up
// must not abort a merge halfway or be reported as a source outage; the
// per-fetch timeout is the only bound.
func (s *Service) Refresh(ctx context.Context) (*refresh.Result, error) {
	result, err := s.refresher.Run(context.WithoutCancel(ctx))
	if err == nil {
		return result, nil
	}

	if errors.Is(err, refresh.ErrRefreshInProgress) {
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, MsgRefreshInProgress)
	}

	var srcErr *refresh.SourceUnavailableError
	if errors.As(err, &srcErr) {
		origin := srcErr.Source
		var o interface{ Origin() string }
		if errors.As(err, &o) {
			origin = o.Origin()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, MsgSourceUnavailable).
			WithDetails("Could not fetch data from " + origin)
	}

	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "refresh failed")
}

// List returns countries filtered by region and currency, ordered by sort.
func (s *Service) List(ctx context.Context, region, currency, sort string) ([]*models.Country, error) {
	order, err := models.ParseSortOrder(sort)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("Invalid sort parameter: %s", sort))
	}

	list, err := s.store.List(ctx, models.ListFilter{
		Region:   strings.TrimSpace(region),
		Currency: strings.TrimSpace(currency),
		Sort:     order,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list countries")
	}
	return list, nil
}

// Show resolves name to a single country.
func (s *Service) Show(ctx context.Context, name string) (*models.Country, error) {
	return s.lookup(ctx, name)
}

// Destroy resolves name and deletes the matched country.
func (s *Service) Destroy(ctx context.Context, name string) (*models.Country, error) {
	country, err := s.lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteByName(ctx, country.Name); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, MsgCountryNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete country")
	}

	s.logger.InfoContext(ctx, "country deleted",
		"name", country.Name,
		"id", country.ID,
	)
	return country, nil
}

// Status reports the catalog size and the latest refresh instant.
func (s *Service) Status(ctx context.Context) (*models.Status, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count countries")
	}
	latest, err := s.store.MaxLastRefreshedAt(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read last refresh time")
	}
	return &models.Status{TotalCountries: total, LastRefreshedAt: latest}, nil
}

// SummaryImagePath returns the summary image path once it has been generated.
func (s *Service) SummaryImagePath(_ context.Context) (string, error) {
	info, err := os.Stat(s.imagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", dErrors.New(dErrors.CodeNotFound, MsgImageNotFound)
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to stat summary image")
	}
	if info.IsDir() {
		return "", dErrors.New(dErrors.CodeNotFound, MsgImageNotFound)
	}
	return s.imagePath, nil
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "store unavailable")
	}
	return nil
}

// lookup applies the configured name matching policy. In exact_first mode
// a whole-name match wins over an earlier substring match.
func (s *Service) lookup(ctx context.Context, name string) (*models.Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, MsgCountryNotFound)
	}

	if s.matchMode != config.NameMatchContains {
		country, err := s.store.FindByName(ctx, name)
		if err == nil {
			return country, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find country")
		}
	}

	country, err := s.store.FindByNameContains(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, MsgCountryNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find country")
	}
	return country, nil
}
