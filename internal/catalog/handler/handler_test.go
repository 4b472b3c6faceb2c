package handler

import (
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"countrycatalog/internal/catalog/estimate"
	"countrycatalog/internal/catalog/models"
	"countrycatalog/internal/catalog/refresh"
	"countrycatalog/internal/catalog/service"
	"countrycatalog/internal/catalog/sources"
	"countrycatalog/internal/catalog/store"
	"countrycatalog/internal/catalog/summary"
	"countrycatalog/internal/platform/logger"
	"countrycatalog/pkg/testutil"
)

const countriesJSON = `[
  {"name":"Wakanda","capital":"Birnin Zana","region":"Africa","population":1000000,"flag":"https://flags.example.com/wk.svg","currencies":[{"code":"WKD"}]},
  {"name":"Genovia","capital":"Pyrus","region":"Europe","population":30000,"currencies":[{"code":"EUR"}]},
  {"name":"Atlantis","region":"Oceans","population":5000},
  {"name":"","population":10},
  {"name":"Nowhere","region":"Africa"},
  {"name":"Oddland","region":"Africa","population":"unknown"}
]`

const ratesJSON = `{"result":"success","base_code":"USD","rates":{"WKD":2.0,"EUR":0.5}}`

type CatalogHandlerSuite struct {
	suite.Suite
	countriesStatus atomic.Int32
	countriesSrv    *httptest.Server
	ratesSrv        *httptest.Server
	store           *store.InMemoryStore
	locker          *refresh.LocalLocker
	imagePath       string
	router          http.Handler
	now             time.Time
}

func TestCatalogHandlerSuite(t *testing.T) {
	suite.Run(t, new(CatalogHandlerSuite))
}

func (s *CatalogHandlerSuite) SetupTest() {
	s.countriesStatus.Store(http.StatusOK)
	s.countriesSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := int(s.countriesStatus.Load())
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(countriesJSON))
		}
	}))
	s.ratesSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(ratesJSON))
	}))
	s.T().Cleanup(s.countriesSrv.Close)
	s.T().Cleanup(s.ratesSrv.Close)

	s.now = time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)
	s.imagePath = filepath.Join(s.T().TempDir(), "cache", "summary.png")
	s.router = s.buildRouter(s.imagePath)
}

func (s *CatalogHandlerSuite) buildRouter(imagePath string) http.Handler {
	log := logger.Discard()
	s.store = store.NewInMemory()
	s.locker = refresh.NewLocalLocker()

	orchestrator := refresh.New(
		sources.NewClient(s.countriesSrv.URL, s.ratesSrv.URL, sources.WithTimeout(2*time.Second), sources.WithLogger(log)),
		estimate.New(estimate.Fixed(1500)),
		s.store,
		summary.NewRenderer(imagePath, log),
		refresh.WithLogger(log),
		refresh.WithLocker(s.locker),
		refresh.WithClock(func() time.Time { return s.now }),
	)
	svc := service.New(s.store, orchestrator, s.imagePath, service.WithLogger(log))

	r := chi.NewRouter()
	New(svc, log).Register(r)
	return r
}

func (s *CatalogHandlerSuite) do(method, path string) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewRequest(s.T(), method, path))
}

func (s *CatalogHandlerSuite) refresh() *RefreshResponse {
	rr := s.do(http.MethodPost, "/countries/refresh")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[RefreshResponse](s.T(), rr)
}

func (s *CatalogHandlerSuite) TestRefreshThenRead() {
	t := s.T()

	testutil.Given(t, "an empty catalog", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/status")
		testutil.AssertStatusOK(t, rr)
		status := testutil.UnmarshalResponse[models.Status](t, rr)
		assert.Equal(t, 0, status.TotalCountries)
		assert.Nil(t, status.LastRefreshedAt)

		testutil.AssertStatusAndError(t, s.do(http.MethodGet, "/countries/image"), http.StatusNotFound, "Summary image not found")
	})

	testutil.When(t, "a refresh succeeds", func(t *testing.T) {
		resp := s.refresh()
		assert.Equal(t, "Countries refreshed successfully", resp.Message)
		assert.Equal(t, 3, resp.TotalCountries)
		assert.Equal(t, "2025-10-22T12:00:00Z", resp.LastRefreshedAt)
		assert.Empty(t, resp.SummaryError)
	})

	testutil.Then(t, "the catalog can be listed, shown and summarized", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/countries?sort=gdp_desc")
		testutil.AssertStatusOK(t, rr)
		list := *testutil.UnmarshalResponse[[]models.Country](t, rr)
		require.Len(t, list, 3)
		assert.Equal(t, "Wakanda", list[0].Name)
		assert.Equal(t, "Genovia", list[1].Name)
		assert.Nil(t, list[2].EstimatedGDP)

		rr = s.do(http.MethodGet, "/countries?region=africa")
		list = *testutil.UnmarshalResponse[[]models.Country](t, rr)
		require.Len(t, list, 1)
		assert.Equal(t, "Wakanda", list[0].Name)

		rr = s.do(http.MethodGet, "/countries/wakanda")
		testutil.AssertStatusOK(t, rr)
		wakanda := testutil.UnmarshalResponse[models.Country](t, rr)
		require.NotNil(t, wakanda.EstimatedGDP)
		assert.Equal(t, 750_000_000.0, *wakanda.EstimatedGDP)
		require.NotNil(t, wakanda.CurrencyCode)
		assert.Equal(t, "WKD", *wakanda.CurrencyCode)

		rr = s.do(http.MethodGet, "/status")
		status := testutil.UnmarshalResponse[models.Status](t, rr)
		assert.Equal(t, 3, status.TotalCountries)
		require.NotNil(t, status.LastRefreshedAt)
		assert.True(t, s.now.Equal(*status.LastRefreshedAt))

		rr = s.do(http.MethodGet, "/countries/image")
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		img, err := png.Decode(rr.Body)
		require.NoError(t, err)
		assert.Equal(t, summary.Width, img.Bounds().Dx())
	})

	testutil.Then(t, "a second refresh does not duplicate records", func(t *testing.T) {
		s.refresh()
		count, err := s.store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func (s *CatalogHandlerSuite) TestDestroy() {
	s.refresh()

	rr := s.do(http.MethodDelete, "/countries/GENOVIA")
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "message", "Country deleted successfully")

	testutil.AssertStatusAndError(s.T(), s.do(http.MethodGet, "/countries/genovia"), http.StatusNotFound, "Country not found")
	testutil.AssertStatusAndError(s.T(), s.do(http.MethodDelete, "/countries/genovia"), http.StatusNotFound, "Country not found")
}

func (s *CatalogHandlerSuite) TestShowDecodesPathName() {
	_, err := s.store.Upsert(context.Background(), models.Country{Name: "Papua New Guinea", Population: 9, LastRefreshedAt: s.now})
	s.Require().NoError(err)

	rr := s.do(http.MethodGet, "/countries/papua%20new%20guinea")
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "name", "Papua New Guinea")
}

func (s *CatalogHandlerSuite) TestListRejectsUnknownSort() {
	rr := s.do(http.MethodGet, "/countries?sort=population_asc")
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Contains(body["error"], "population_asc")
}

func (s *CatalogHandlerSuite) TestSourceUnavailable() {
	s.refresh()
	before, err := s.store.List(context.Background(), models.ListFilter{})
	s.Require().NoError(err)

	s.countriesStatus.Store(http.StatusBadGateway)
	s.now = s.now.Add(time.Hour)

	rr := s.do(http.MethodPost, "/countries/refresh")
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal("External data source unavailable", body["error"])
	s.Equal("Could not fetch data from 127.0.0.1", body["details"])

	after, err := s.store.List(context.Background(), models.ListFilter{})
	s.Require().NoError(err)
	s.Equal(before, after, "catalog unchanged after aborted refresh")
}

func (s *CatalogHandlerSuite) TestRenderFailureStillSucceeds() {
	blocker := filepath.Join(s.T().TempDir(), "not-a-dir")
	s.Require().NoError(os.WriteFile(blocker, []byte("x"), 0o600))
	s.router = s.buildRouter(filepath.Join(blocker, "summary.png"))

	resp := s.refresh()
	s.Equal(3, resp.TotalCountries)
	s.NotEmpty(resp.SummaryError)
}

func (s *CatalogHandlerSuite) TestRefreshInProgress() {
	release, err := s.locker.TryAcquire(context.Background())
	s.Require().NoError(err)
	defer release()

	testutil.AssertStatusAndError(s.T(), s.do(http.MethodPost, "/countries/refresh"), http.StatusConflict, "Refresh already in progress")
}
