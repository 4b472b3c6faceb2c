package refresh

import (
	"context"
	"time"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/internal/catalog/summary"
)

// Fetcher retrieves the two upstream datasets.
type Fetcher interface {
	FetchCountries(ctx context.Context) ([]models.RawCountry, error)
	FetchRates(ctx context.Context) (models.Rates, error)
}

// Estimator turns one raw entry into a record candidate, or reports a drop.
type Estimator interface {
	Estimate(raw models.RawCountry, rates models.Rates, refreshedAt time.Time) (models.Country, bool)
}

// Store is the part of the catalog store a refresh pass writes and reads.
type Store interface {
	Upsert(ctx context.Context, country models.Country) (*models.Country, error)
	Count(ctx context.Context) (int, error)
	TopByEstimatedGDP(ctx context.Context, n int) ([]*models.Country, error)
}

// Renderer draws and persists the summary image.
type Renderer interface {
	Render(ctx context.Context, snap summary.Snapshot) error
}

// Locker admits at most one refresh pass at a time. TryAcquire never
// waits: it returns ErrRefreshInProgress when the lock is held.
type Locker interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}
