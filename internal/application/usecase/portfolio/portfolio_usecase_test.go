package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio/portfoliotest"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type PortfolioUseCaseTestSuite struct {
	suite.Suite
	repo      *portfoliotest.Repository
	legacy    *portfoliotest.LegacyRepository
	cache     *portfoliotest.Cache
	publisher *portfoliotest.Publisher

	get     *GetPortfolioUseCase
	save    *SavePortfolioUseCase
	reset   *ResetPortfolioUseCase
	migrate *MigrateLegacyUseCase
}

func TestPortfolioUseCases(t *testing.T) {
	suite.Run(t, new(PortfolioUseCaseTestSuite))
}

func (s *PortfolioUseCaseTestSuite) SetupTest() {
	log := logger.NewNopLogger()
	s.repo = portfoliotest.NewRepository()
	s.legacy = &portfoliotest.LegacyRepository{}
	s.cache = &portfoliotest.Cache{}
	s.publisher = &portfoliotest.Publisher{}

	s.get = NewGetPortfolioUseCase(s.repo, s.cache, time.Second, log)
	s.save = NewSavePortfolioUseCase(s.repo, s.cache, s.publisher, log)
	s.reset = NewResetPortfolioUseCase(s.repo, s.cache, s.publisher, log)
	s.migrate = NewMigrateLegacyUseCase(s.repo, s.legacy, s.cache, s.publisher, log)
}

func (s *PortfolioUseCaseTestSuite) saveJSON(body string, partial bool) *SaveOutput {
	patch, err := portfolio.ParsePatch([]byte(body))
	s.Require().NoError(err)
	out, err := s.save.Execute(context.Background(), SaveInput{Patch: patch, Partial: partial})
	s.Require().NoError(err)
	return out
}

func (s *PortfolioUseCaseTestSuite) Test_Get_WithoutDatabase_ReturnsDefaults() {
	s.repo.ReadyErr = errors.New("db.dsn is not set")

	snap := s.get.ExecuteFull(context.Background())

	s.True(snap.IsDefault)
	s.False(snap.IsCustomized)
	s.Equal(int64(0), snap.Version)
	s.Equal(portfolio.DefaultDocument(), snap.Document)
	s.Zero(s.repo.Saves())
}

func (s *PortfolioUseCaseTestSuite) Test_Get_SeedsDefaultsOnFirstRead() {
	snap := s.get.ExecuteFull(context.Background())

	s.False(snap.IsDefault)
	s.NotZero(snap.Version)
	s.Equal(1, s.repo.Saves())
	s.Equal(portfolio.DefaultDocument().Personal, snap.Document.Personal)
	s.Len(snap.Document.Skills, len(portfolio.DefaultDocument().Skills))
}

func (s *PortfolioUseCaseTestSuite) Test_Save_RoundTrip() {
	doc := portfolio.Document{
		Personal: portfolio.Personal{Name: "Ada", Title: "Engineer", Email: "ada@example.org"},
		Social:   portfolio.Social{GitHub: "https://github.com/ada"},
		Skills:   []portfolio.Skill{{ID: uuid.NewString(), Name: "Go", Level: 90}, {ID: uuid.NewString(), Name: "SQL", Level: 70, Order: 1}},
		Projects: []portfolio.Project{
			{ID: uuid.NewString(), Title: "A", Images: []string{}, Technologies: []string{"Go"}},
			{ID: uuid.NewString(), Title: "B", Images: []string{"b.png"}, Technologies: []string{}, Order: 1},
		},
		Experience:   []portfolio.Experience{{ID: uuid.NewString(), Role: "Dev", Company: "Acme"}},
		Education:    []portfolio.Education{{ID: uuid.NewString(), Degree: "BSc"}},
		Certificates: []portfolio.Certificate{{ID: uuid.NewString(), Name: "CKA", URL: "https://cert"}},
		Gallery:      []portfolio.GalleryItem{{ID: uuid.NewString(), Title: "Sunset", URL: "https://img"}},
	}
	body, err := json.Marshal(doc)
	s.Require().NoError(err)

	out := s.saveJSON(string(body), false)
	snap := s.get.ExecuteFull(context.Background())

	s.Equal(doc, snap.Document)
	s.True(snap.IsCustomized)
	s.Equal(out.Version, snap.Version)
}

func (s *PortfolioUseCaseTestSuite) Test_Save_PartialKeepsOtherSections() {
	s.saveJSON(`{"personal":{"name":"Ada","email":"your.email@example.com"},"skills":[{"name":"Go"}]}`, false)

	s.saveJSON(`{"personal":{"email":"me@x.com"}}`, true)
	snap := s.get.ExecuteFull(context.Background())

	s.Equal("Ada", snap.Document.Personal.Name)
	s.Equal("me@x.com", snap.Document.Personal.Email)
	s.Require().Len(snap.Document.Skills, 1)
	s.Equal("Go", snap.Document.Skills[0].Name)
	s.True(snap.IsCustomized)
}

func (s *PortfolioUseCaseTestSuite) Test_Save_PreservesSubmittedOrder() {
	s.saveJSON(`{"projects":[{"title":"A"},{"title":"B"},{"title":"C"}]}`, true)

	out := s.get.ExecuteSections(context.Background(), []portfolio.Section{portfolio.SectionProjects})

	projects := out.Sections[portfolio.SectionProjects].([]portfolio.Project)
	s.Require().Len(projects, 3)
	s.Equal("A", projects[0].Title)
	s.Equal("B", projects[1].Title)
	s.Equal("C", projects[2].Title)
}

func (s *PortfolioUseCaseTestSuite) Test_Save_WithoutDatabase_IsUnavailable() {
	s.repo.ReadyErr = errors.New("connection refused")
	patch, err := portfolio.ParsePatch([]byte(`{"personal":{"name":"X"}}`))
	s.Require().NoError(err)

	_, err = s.save.Execute(context.Background(), SaveInput{Patch: patch})

	s.ErrorIs(err, apperror.ErrUnavailable)
	s.Zero(s.repo.Saves())
}

func (s *PortfolioUseCaseTestSuite) Test_Writes_KeepDatabaseUnavailable() {
	s.saveJSON(`{}`, false)
	lost := apperror.NewUnavailable("Database not connected", "failed to query portfolio", errors.New("connection refused"))
	patch, _ := portfolio.ParsePatch([]byte(`{"personal":{"name":"X"}}`))

	s.repo.FindErr = lost
	_, saveErr := s.save.Execute(context.Background(), SaveInput{Patch: patch, Partial: true})
	_, resetErr := s.reset.Execute(context.Background())
	_, cleanupErr := s.migrate.ExecuteCleanup(context.Background())

	s.ErrorIs(saveErr, apperror.ErrUnavailable)
	s.ErrorIs(resetErr, apperror.ErrUnavailable)
	s.ErrorIs(cleanupErr, apperror.ErrUnavailable)

	s.repo.FindErr = nil
	s.repo.SaveErr = lost
	_, saveErr = s.save.Execute(context.Background(), SaveInput{Patch: patch, Partial: true})
	s.ErrorIs(saveErr, apperror.ErrUnavailable)
	s.NotErrorIs(saveErr, apperror.ErrInternal)
}

func (s *PortfolioUseCaseTestSuite) Test_Save_FailureIsInternal() {
	s.saveJSON(`{}`, false)
	s.repo.SaveErr = errors.New("disk full")
	patch, _ := portfolio.ParsePatch([]byte(`{"skills":[]}`))

	_, err := s.save.Execute(context.Background(), SaveInput{Patch: patch})

	s.ErrorIs(err, apperror.ErrInternal)
}

func (s *PortfolioUseCaseTestSuite) Test_Save_InvalidatesCacheAndPublishes() {
	s.get.ExecuteFull(context.Background())
	s.Require().True(s.cache.Cached())

	out := s.saveJSON(`{"gallery":[{"title":"Beach"}]}`, true)

	s.False(s.cache.Cached())
	events := s.publisher.Events()
	s.Require().NotEmpty(events)
	last := events[len(events)-1]
	s.Equal(portfolio.EventSaved, last.Type)
	s.Equal(out.Version, last.Version)
	s.Equal([]portfolio.Section{portfolio.SectionGallery}, last.Sections)
}

func (s *PortfolioUseCaseTestSuite) Test_Reset_IsIdempotent() {
	s.saveJSON(`{"personal":{"email":"me@x.com"},"skills":[{"name":"Go"},{"name":"Rust"}],"projects":[{"title":"Mine"}]}`, false)

	first, err := s.reset.Execute(context.Background())
	s.Require().NoError(err)
	afterFirst := s.get.ExecuteFull(context.Background())
	second, err := s.reset.Execute(context.Background())
	s.Require().NoError(err)
	afterSecond := s.get.ExecuteFull(context.Background())

	s.False(afterSecond.IsCustomized)
	s.Equal(portfoliotest.WithoutIDs(afterFirst.Document), portfoliotest.WithoutIDs(afterSecond.Document))
	s.Equal(portfoliotest.WithoutIDs(portfolio.DefaultDocument()), portfoliotest.WithoutIDs(afterSecond.Document))
	s.Len(afterSecond.Document.Skills, len(portfolio.DefaultDocument().Skills))
	s.Greater(second.Snapshot.Version, first.Snapshot.Version)
}

func (s *PortfolioUseCaseTestSuite) Test_Get_SectionFailureYieldsEmptyList() {
	s.saveJSON(`{"skills":["Go"],"projects":[{"title":"A"}]}`, true)
	s.repo.SectionErr[portfolio.SectionProjects] = errors.New("timeout")

	snap := s.get.ExecuteFull(context.Background())

	s.False(snap.IsDefault)
	s.Empty(snap.Document.Projects)
	s.NotNil(snap.Document.Projects)
	s.Len(snap.Document.Skills, 1)
	s.False(s.cache.Cached())
}

func (s *PortfolioUseCaseTestSuite) Test_Get_RacingSaveDoesNotCacheOldContent() {
	s.saveJSON(`{"gallery":[{"title":"Old"}]}`, false)
	var once sync.Once
	s.repo.BeforeLoad = func() {
		once.Do(func() { s.saveJSON(`{"gallery":[{"title":"New"}]}`, true) })
	}

	raced := s.get.ExecuteFull(context.Background())
	s.repo.BeforeLoad = nil

	s.False(s.cache.Cached())
	fresh := s.get.ExecuteFull(context.Background())
	s.Greater(fresh.Version, raced.Version)
	s.Require().Len(fresh.Document.Gallery, 1)
	s.Equal("New", fresh.Document.Gallery[0].Title)
	s.True(s.cache.Cached())
}

func (s *PortfolioUseCaseTestSuite) Test_Get_ServesCachedSnapshot() {
	s.get.ExecuteFull(context.Background())
	loads := s.repo.Loads()

	s.get.ExecuteFull(context.Background())
	core := s.get.ExecuteCore(context.Background())

	s.Equal(loads, s.repo.Loads())
	s.Equal(portfolio.DefaultDocument().Personal, core.Core.Personal)
}

func (s *PortfolioUseCaseTestSuite) Test_Core_WithoutDatabase() {
	s.repo.ReadyErr = errors.New("not configured")

	core := s.get.ExecuteCore(context.Background())

	s.True(core.IsDefault)
	s.False(core.IsCustomized)
	s.Equal(portfolio.PlaceholderEmail, core.Core.Personal.Email)
}

func (s *PortfolioUseCaseTestSuite) Test_Migrate_FansOutLegacyDocument() {
	s.legacy.Exists = true
	s.legacy.Doc = &portfolio.LegacyDocument{ID: 7, Data: json.RawMessage(`{
		"personal": {"name": "Legacy", "email": "old@x.com"},
		"skills": ["Go", {"name": "SQL", "level": 50}],
		"projects": [{"title": "P1"}, {"title": "P2"}],
		"gallery": [{"title": ""}, {"title": "Kept"}]
	}`)}

	out, err := s.migrate.Execute(context.Background())
	s.Require().NoError(err)
	s.True(out.Migrated)
	s.Equal([]int64{7}, s.legacy.Deleted)
	s.False(s.legacy.Exists)

	snap := s.get.ExecuteFull(context.Background())
	s.Equal("Legacy", snap.Document.Personal.Name)
	s.True(snap.IsCustomized)
	s.Len(snap.Document.Skills, 2)
	s.Equal("P1", snap.Document.Projects[0].Title)
	s.Len(snap.Document.Gallery, 1)
	s.Empty(snap.Document.Certificates)

	again, err := s.migrate.Execute(context.Background())
	s.Require().NoError(err)
	s.False(again.Migrated)
}

func (s *PortfolioUseCaseTestSuite) Test_Migrate_NoLegacyIsNoop() {
	out, err := s.migrate.Execute(context.Background())

	s.Require().NoError(err)
	s.False(out.Migrated)
	s.Zero(s.repo.Saves())
}

func (s *PortfolioUseCaseTestSuite) Test_Cleanup_RequiresNormalizedPortfolio() {
	s.legacy.Exists = true
	s.legacy.Doc = &portfolio.LegacyDocument{ID: 1, Data: json.RawMessage(`{}`)}

	out, err := s.migrate.ExecuteCleanup(context.Background())
	s.Require().NoError(err)
	s.Zero(out.Removed)
	s.NotNil(s.legacy.Doc)

	s.saveJSON(`{}`, true)
	out, err = s.migrate.ExecuteCleanup(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(1), out.Removed)
	s.True(out.Dropped)
}
