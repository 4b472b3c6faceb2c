package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/pkg/platform/sentinel"
	"countrycatalog/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func gdp(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func (s *InMemoryStoreSuite) seed(countries ...models.Country) {
	for _, c := range countries {
		_, err := s.store.Upsert(s.ctx, c)
		s.Require().NoError(err)
	}
}

func (s *InMemoryStoreSuite) TestUpsert() {
	s.Run("creates then updates in place", func() {
		first, err := s.store.Upsert(s.ctx, models.Country{Name: "Nigeria", Population: 100, LastRefreshedAt: s.now})
		s.Require().NoError(err)
		s.Equal(int64(1), first.ID)

		later := s.now.Add(time.Hour)
		ctx := requestcontext.WithTime(context.Background(), later)
		second, err := s.store.Upsert(ctx, models.Country{
			Name:            "Nigeria",
			Population:      200,
			EstimatedGDP:    gdp(5),
			LastRefreshedAt: later,
		})
		s.Require().NoError(err)

		s.Equal(first.ID, second.ID)
		s.Equal(s.now, second.CreatedAt)
		s.Equal(later, second.UpdatedAt)
		s.Equal(int64(200), second.Population)

		count, err := s.store.Count(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("key is exact name", func() {
		s.seed(models.Country{Name: "nigeria", Population: 1, LastRefreshedAt: s.now})
		count, err := s.store.Count(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, count)
	})

	s.Run("returned records do not alias storage", func() {
		found, err := s.store.FindByName(s.ctx, "Nigeria")
		s.Require().NoError(err)
		*found.EstimatedGDP = 999

		again, err := s.store.FindByName(s.ctx, "Nigeria")
		s.Require().NoError(err)
		s.Equal(5.0, *again.EstimatedGDP)
	})
}

func (s *InMemoryStoreSuite) TestFind() {
	s.seed(
		models.Country{Name: "Guinea-Bissau", Population: 2, LastRefreshedAt: s.now},
		models.Country{Name: "Guinea", Population: 13, LastRefreshedAt: s.now},
	)

	s.Run("exact match ignores case", func() {
		found, err := s.store.FindByName(s.ctx, "GUINEA")
		s.Require().NoError(err)
		s.Equal("Guinea", found.Name)
	})

	s.Run("substring match returns first in store order", func() {
		found, err := s.store.FindByNameContains(s.ctx, "guinea")
		s.Require().NoError(err)
		s.Equal("Guinea-Bissau", found.Name)
	})

	s.Run("missing returns ErrNotFound", func() {
		_, err := s.store.FindByName(s.ctx, "Atlantis")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByNameContains(s.ctx, "lantis")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestDelete() {
	s.seed(
		models.Country{Name: "Ghana", Population: 1, LastRefreshedAt: s.now},
		models.Country{Name: "Togo", Population: 1, LastRefreshedAt: s.now},
	)

	s.Require().NoError(s.store.DeleteByName(s.ctx, "Ghana"))
	_, err := s.store.FindByName(s.ctx, "Ghana")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.DeleteByName(s.ctx, "Ghana"), sentinel.ErrNotFound)

	list, err := s.store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Togo", list[0].Name)
}

func (s *InMemoryStoreSuite) TestTopByEstimatedGDP() {
	s.seed(
		models.Country{Name: "A", Population: 1, EstimatedGDP: gdp(10), LastRefreshedAt: s.now},
		models.Country{Name: "B", Population: 1, LastRefreshedAt: s.now},
		models.Country{Name: "C", Population: 1, EstimatedGDP: gdp(30), LastRefreshedAt: s.now},
		models.Country{Name: "D", Population: 1, EstimatedGDP: gdp(20), LastRefreshedAt: s.now},
	)

	top, err := s.store.TopByEstimatedGDP(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal([]string{"C", "D", "A"}, names(top))

	all, err := s.store.TopByEstimatedGDP(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal([]string{"C", "D", "A", "B"}, names(all), "nulls sort last")
}

func (s *InMemoryStoreSuite) TestList() {
	s.seed(
		models.Country{Name: "Nigeria", Region: str("Africa"), CurrencyCode: str("NGN"), Population: 200, EstimatedGDP: gdp(20), LastRefreshedAt: s.now},
		models.Country{Name: "Ghana", Region: str("Africa"), CurrencyCode: str("GHS"), Population: 30, LastRefreshedAt: s.now},
		models.Country{Name: "France", Region: str("Europe"), CurrencyCode: str("EUR"), Population: 67, EstimatedGDP: gdp(50), LastRefreshedAt: s.now},
	)

	tests := []struct {
		name   string
		filter models.ListFilter
		want   []string
	}{
		{"default sort is name ascending", models.ListFilter{}, []string{"France", "Ghana", "Nigeria"}},
		{"region is case-insensitive", models.ListFilter{Region: "africa"}, []string{"Ghana", "Nigeria"}},
		{"currency filter", models.ListFilter{Currency: "ngn"}, []string{"Nigeria"}},
		{"gdp descending nulls last", models.ListFilter{Sort: models.SortGDPDesc}, []string{"France", "Nigeria", "Ghana"}},
		{"gdp ascending nulls last", models.ListFilter{Sort: models.SortGDPAsc}, []string{"Nigeria", "France", "Ghana"}},
		{"name descending", models.ListFilter{Sort: models.SortNameDesc}, []string{"Nigeria", "Ghana", "France"}},
		{"population descending", models.ListFilter{Sort: models.SortPopulationDesc}, []string{"Nigeria", "France", "Ghana"}},
		{"no match", models.ListFilter{Region: "Oceania"}, []string{}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			list, err := s.store.List(s.ctx, tt.filter)
			s.Require().NoError(err)
			s.Equal(tt.want, names(list))
		})
	}
}

func (s *InMemoryStoreSuite) TestMaxLastRefreshedAt() {
	latest, err := s.store.MaxLastRefreshedAt(s.ctx)
	s.Require().NoError(err)
	s.Nil(latest)

	s.seed(
		models.Country{Name: "A", Population: 1, LastRefreshedAt: s.now},
		models.Country{Name: "B", Population: 1, LastRefreshedAt: s.now.Add(time.Minute)},
	)
	latest, err = s.store.MaxLastRefreshedAt(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Equal(s.now.Add(time.Minute), *latest)
}

func names(list []*models.Country) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}
