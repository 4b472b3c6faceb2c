// Package store holds the catalog store implementations: an in-memory store
// for tests and single-process deployments, and a PostgreSQL store.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/pkg/platform/sentinel"
	"countrycatalog/pkg/requestcontext"
)

// InMemoryStore keeps countries in a map keyed by exact name, with an
// insertion-ordered id slice standing in for store order.
type InMemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*models.Country
	order  []string
	nextID int64
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byName: make(map[string]*models.Country),
		nextID: 1,
	}
}

func (s *InMemoryStore) Ping(_ context.Context) error {
	return nil
}

// Upsert creates the record or replaces the mutable fields of the record
// stored under the same name. ID and CreatedAt survive updates.
func (s *InMemoryStore) Upsert(ctx context.Context, country models.Country) (*models.Country, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := country.Clone()
	if existing, ok := s.byName[country.Name]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = s.nextID
		stored.CreatedAt = now
		s.nextID++
		s.order = append(s.order, country.Name)
	}
	stored.UpdatedAt = now
	s.byName[country.Name] = stored

	return stored.Clone(), nil
}

// FindByName matches the whole name case-insensitively, first in store order.
func (s *InMemoryStore) FindByName(_ context.Context, name string) (*models.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.order {
		if strings.EqualFold(key, name) {
			return s.byName[key].Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindByNameContains returns the first record in store order whose name
// contains substr, ignoring case.
func (s *InMemoryStore) FindByNameContains(_ context.Context, substr string) (*models.Country, error) {
	needle := strings.ToLower(substr)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.order {
		if strings.Contains(strings.ToLower(key), needle) {
			return s.byName[key].Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// DeleteByName removes the record stored under the exact name.
func (s *InMemoryStore) DeleteByName(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byName, name)
	for i, key := range s.order {
		if key == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStore) TopByEstimatedGDP(_ context.Context, n int) ([]*models.Country, error) {
	if n <= 0 {
		return []*models.Country{}, nil
	}
	list := s.snapshot()
	sortCountries(list, models.SortGDPDesc)
	if len(list) > n {
		list = list[:n]
	}
	return list, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName), nil
}

// MaxLastRefreshedAt returns nil for an empty store.
func (s *InMemoryStore) MaxLastRefreshedAt(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *time.Time
	for _, c := range s.byName {
		if latest == nil || c.LastRefreshedAt.After(*latest) {
			t := c.LastRefreshedAt
			latest = &t
		}
	}
	return latest, nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Country, error) {
	all := s.snapshot()
	out := make([]*models.Country, 0, len(all))
	for _, c := range all {
		if filter.Region != "" && !c.MatchesRegion(filter.Region) {
			continue
		}
		if filter.Currency != "" && !c.MatchesCurrency(filter.Currency) {
			continue
		}
		out = append(out, c)
	}
	sortCountries(out, filter.Sort)
	return out, nil
}

func (s *InMemoryStore) snapshot() []*models.Country {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Country, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byName[key].Clone())
	}
	return out
}
