package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CatalogStore,Refresher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/internal/catalog/refresh"
	"countrycatalog/internal/catalog/service/mocks"
	"countrycatalog/internal/catalog/sources"
	"countrycatalog/internal/catalog/store"
	"countrycatalog/internal/platform/config"
	"countrycatalog/internal/platform/logger"
	dErrors "countrycatalog/pkg/domain-errors"
	"countrycatalog/pkg/platform/sentinel"
	"countrycatalog/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	refresher *mocks.MockRefresher
	store     *store.InMemoryStore
	imagePath string
	service   *Service
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.refresher = mocks.NewMockRefresher(s.ctrl)
	s.store = store.NewInMemory()
	s.imagePath = filepath.Join(s.T().TempDir(), "summary.png")
	s.service = New(s.store, s.refresher, s.imagePath, WithLogger(logger.Discard()))
	s.now = time.Date(2025, 10, 22, 12, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) seed(names ...string) {
	for _, name := range names {
		_, err := s.store.Upsert(context.Background(), models.Country{Name: name, Population: 1, LastRefreshedAt: s.now})
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) *dErrors.Error {
	s.Require().Error(err)
	de, ok := dErrors.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(code, de.Code)
	return de
}

func (s *ServiceSuite) TestRefresh() {
	s.Run("passes result through", func() {
		want := &refresh.Result{TotalSaved: 3, LastRefreshedAt: s.now}
		s.refresher.EXPECT().Run(gomock.Any()).Return(want, nil)

		got, err := s.service.Refresh(context.Background())
		s.Require().NoError(err)
		s.Same(want, got)
	})

	s.Run("runs to completion after the caller goes away", func() {
		ctx, cancel := context.WithCancel(requestcontext.WithRequestID(context.Background(), "req-7"))
		cancel()

		want := &refresh.Result{TotalSaved: 1, LastRefreshedAt: s.now}
		s.refresher.EXPECT().Run(gomock.Any()).DoAndReturn(func(runCtx context.Context) (*refresh.Result, error) {
			s.NoError(runCtx.Err(), "pass must not inherit caller cancellation")
			s.Equal("req-7", requestcontext.RequestID(runCtx), "request values are kept")
			return want, nil
		})

		got, err := s.service.Refresh(ctx)
		s.Require().NoError(err)
		s.Same(want, got)
	})

	s.Run("source failure names the upstream host", func() {
		upstream := &sources.UnavailableError{Source: sources.SourceCountries, Host: "restcountries.com", Category: sources.ErrorTimeout}
		s.refresher.EXPECT().Run(gomock.Any()).Return(nil, &refresh.SourceUnavailableError{Source: "countries", Err: upstream})

		_, err := s.service.Refresh(context.Background())
		de := s.requireCode(err, dErrors.CodeUnavailable)
		s.Equal(MsgSourceUnavailable, de.Message)
		s.Equal("Could not fetch data from restcountries.com", de.Details)
	})

	s.Run("source failure without host falls back to source name", func() {
		s.refresher.EXPECT().Run(gomock.Any()).Return(nil, &refresh.SourceUnavailableError{Source: "rates", Err: errors.New("x")})

		_, err := s.service.Refresh(context.Background())
		de := s.requireCode(err, dErrors.CodeUnavailable)
		s.Equal("Could not fetch data from rates", de.Details)
	})

	s.Run("in progress is a conflict", func() {
		s.refresher.EXPECT().Run(gomock.Any()).Return(nil, refresh.ErrRefreshInProgress)

		_, err := s.service.Refresh(context.Background())
		de := s.requireCode(err, dErrors.CodeConflict)
		s.Equal(MsgRefreshInProgress, de.Message)
	})

	s.Run("merge failure is internal", func() {
		s.refresher.EXPECT().Run(gomock.Any()).Return(&refresh.Result{}, &refresh.InternalError{Stage: refresh.StateMerging, Err: errors.New("db")})

		_, err := s.service.Refresh(context.Background())
		s.requireCode(err, dErrors.CodeInternal)
	})
}

func (s *ServiceSuite) TestShowMatching() {
	s.seed("Guinea-Bissau", "Guinea", "Papua New Guinea")

	s.Run("exact match wins over earlier substring", func() {
		c, err := s.service.Show(context.Background(), "guinea")
		s.Require().NoError(err)
		s.Equal("Guinea", c.Name)
	})

	s.Run("falls back to substring", func() {
		c, err := s.service.Show(context.Background(), "papua")
		s.Require().NoError(err)
		s.Equal("Papua New Guinea", c.Name)
	})

	s.Run("contains mode takes first substring match", func() {
		svc := New(s.store, s.refresher, s.imagePath, WithNameMatchMode(config.NameMatchContains), WithLogger(logger.Discard()))
		c, err := svc.Show(context.Background(), "guinea")
		s.Require().NoError(err)
		s.Equal("Guinea-Bissau", c.Name)
	})

	s.Run("missing is not found", func() {
		_, err := s.service.Show(context.Background(), "Atlantis")
		de := s.requireCode(err, dErrors.CodeNotFound)
		s.Equal(MsgCountryNotFound, de.Message)
	})
}

func (s *ServiceSuite) TestDestroy() {
	s.seed("Ghana", "Togo")

	deleted, err := s.service.Destroy(context.Background(), "GHANA")
	s.Require().NoError(err)
	s.Equal("Ghana", deleted.Name)

	_, err = s.service.Show(context.Background(), "Ghana")
	s.requireCode(err, dErrors.CodeNotFound)

	list, err := s.service.List(context.Background(), "", "", "")
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.service.Destroy(context.Background(), "Ghana")
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestList() {
	s.seed("b", "a")

	list, err := s.service.List(context.Background(), "", "", "")
	s.Require().NoError(err)
	s.Equal("a", list[0].Name)

	_, err = s.service.List(context.Background(), "", "", "random")
	s.requireCode(err, dErrors.CodeBadRequest)
}

func (s *ServiceSuite) TestStatus() {
	status, err := s.service.Status(context.Background())
	s.Require().NoError(err)
	s.Equal(0, status.TotalCountries)
	s.Nil(status.LastRefreshedAt)

	s.seed("Ghana", "Togo")
	status, err = s.service.Status(context.Background())
	s.Require().NoError(err)
	s.Equal(2, status.TotalCountries)
	s.Require().NotNil(status.LastRefreshedAt)
	s.Equal(s.now, *status.LastRefreshedAt)
}

func (s *ServiceSuite) TestSummaryImagePath() {
	_, err := s.service.SummaryImagePath(context.Background())
	de := s.requireCode(err, dErrors.CodeNotFound)
	s.Equal(MsgImageNotFound, de.Message)

	s.Require().NoError(os.WriteFile(s.imagePath, []byte("png"), 0o600))
	path, err := s.service.SummaryImagePath(context.Background())
	s.Require().NoError(err)
	s.Equal(s.imagePath, path)
}

func (s *ServiceSuite) TestStoreFailuresAreInternal() {
	st := mocks.NewMockCatalogStore(s.ctrl)
	svc := New(st, s.refresher, s.imagePath, WithLogger(logger.Discard()))
	boom := errors.New("connection refused")

	st.EXPECT().FindByName(gomock.Any(), "Ghana").Return(nil, boom)
	_, err := svc.Show(context.Background(), "Ghana")
	s.requireCode(err, dErrors.CodeInternal)

	st.EXPECT().FindByName(gomock.Any(), "Ghana").Return(&models.Country{Name: "Ghana"}, nil)
	st.EXPECT().DeleteByName(gomock.Any(), "Ghana").Return(sentinel.ErrNotFound)
	_, err = svc.Destroy(context.Background(), "Ghana")
	s.requireCode(err, dErrors.CodeNotFound)

	st.EXPECT().Count(gomock.Any()).Return(0, boom)
	_, err = svc.Status(context.Background())
	s.requireCode(err, dErrors.CodeInternal)

	st.EXPECT().Ping(gomock.Any()).Return(boom)
	s.requireCode(svc.Ping(context.Background()), dErrors.CodeUnavailable)
}
