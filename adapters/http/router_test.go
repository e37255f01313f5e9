package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	portfolioUC "github.com/khoahotran/portfolio-site/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio/portfoliotest"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/auth"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type RouterTestSuite struct {
	suite.Suite
	repo   *portfoliotest.Repository
	legacy *portfoliotest.LegacyRepository
	jwt    *auth.JWTService
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.repo = portfoliotest.NewRepository()
	s.legacy = &portfoliotest.LegacyRepository{}
	s.jwt = nil
	s.router = s.build(1 << 20)
}

func (s *RouterTestSuite) build(maxBody int64) *gin.Engine {
	log := logger.NewNopLogger()
	cache := &portfoliotest.Cache{}
	pub := &portfoliotest.Publisher{}

	handler := NewPortfolioHandler(
		portfolioUC.NewGetPortfolioUseCase(s.repo, cache, time.Second, log),
		portfolioUC.NewSavePortfolioUseCase(s.repo, cache, pub, log),
		portfolioUC.NewResetPortfolioUseCase(s.repo, cache, pub, log),
		portfolioUC.NewMigrateLegacyUseCase(s.repo, s.legacy, cache, pub, log),
		log,
	)
	return NewRouter(RouterConfig{
		MaxBodyBytes:     maxBody,
		PortfolioHandler: handler,
		HealthHandler:    NewHealthHandler(time.Now()),
		JWTService:       s.jwt,
		Logger:           log,
	})
}

func (s *RouterTestSuite) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

func (s *RouterTestSuite) Test_GetPortfolio_WithoutDatabase_ServesDefaults() {
	s.repo.ReadyErr = errors.New("db.dsn is not set")

	w := s.do(http.MethodGet, "/api/portfolio", "", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp PortfolioResponse
	s.decode(w, &resp)
	s.False(resp.IsCustomized)
	s.Equal(portfolio.PlaceholderEmail, resp.Data.Personal.Email)
	s.NotNil(resp.Data.Certificates)
	_, err := time.Parse(portfolioUC.TimestampLayout, resp.Timestamp)
	s.NoError(err)
}

func (s *RouterTestSuite) Test_Save_MalformedBody_IsRejectedBeforeDatabase() {
	s.repo.ReadyErr = errors.New("connection refused")

	for _, body := range []string{"", "[1,2]", `"text"`, `{"personal":"nope"}`, `{"skills":{}}`} {
		w := s.do(http.MethodPost, "/api/portfolio", body, nil)
		s.Equal(http.StatusBadRequest, w.Code, body)
	}
	s.Zero(s.repo.Saves())
}

func (s *RouterTestSuite) Test_Save_WithoutDatabase_Returns503() {
	s.repo.ReadyErr = errors.New("connection refused")

	w := s.do(http.MethodPost, "/api/portfolio", `{"personal":{"name":"Ada"}}`, nil)

	s.Equal(http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	s.decode(w, &body)
	s.Equal(false, body["success"])
	s.NotEmpty(body["error"])
}

func (s *RouterTestSuite) Test_Save_PartialHeaderMerges() {
	w := s.do(http.MethodPost, "/api/portfolio", `{"personal":{"name":"Ada","title":"Engineer"},"skills":["Go"]}`, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var saved SaveResponse
	s.decode(w, &saved)
	s.True(saved.Success)
	s.NotZero(saved.Version)

	w = s.do(http.MethodPost, "/api/portfolio", `{"personal":{"title":"Architect"}}`, map[string]string{HeaderPartialUpdate: "true"})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp PortfolioResponse
	s.decode(s.do(http.MethodGet, "/api/portfolio", "", nil), &resp)
	s.Equal("Ada", resp.Data.Personal.Name)
	s.Equal("Architect", resp.Data.Personal.Title)
	s.Require().Len(resp.Data.Skills, 1)
	s.Equal("Go", resp.Data.Skills[0].Name)
}

func (s *RouterTestSuite) Test_Save_WithoutHeaderReplaces() {
	s.do(http.MethodPost, "/api/portfolio", `{"personal":{"name":"Ada","title":"Engineer"}}`, nil)

	w := s.do(http.MethodPost, "/api/portfolio", `{"personal":{"title":"Architect"}}`, map[string]string{HeaderPartialUpdate: "no"})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp CoreResponse
	s.decode(s.do(http.MethodGet, "/api/portfolio/core", "", nil), &resp)
	s.Empty(resp.Data.Personal.Name)
	s.Equal("Architect", resp.Data.Personal.Title)
}

func (s *RouterTestSuite) Test_GetSections() {
	w := s.do(http.MethodGet, "/api/portfolio/sections", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/portfolio/sections?include=skills,bogus", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	s.decode(w, &resp)
	s.Len(resp.Data, 1)
	s.Contains(resp.Data, "skills")
}

func (s *RouterTestSuite) Test_Reset_ReturnsDefaults() {
	s.do(http.MethodPost, "/api/portfolio", `{"personal":{"email":"me@x.com"}}`, nil)

	w := s.do(http.MethodDelete, "/api/portfolio", "", nil)

	s.Require().Equal(http.StatusOK, w.Code)
	var resp ResetResponse
	s.decode(w, &resp)
	s.True(resp.Success)
	s.Equal(portfolio.DefaultDocument().Personal, resp.Data.Personal)
}

func (s *RouterTestSuite) Test_Writes_DatabaseLostAfterConnect_Return503() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/portfolio", "", nil).Code)
	s.repo.FindErr = apperror.NewUnavailable("Database not connected", "failed to query portfolio", errors.New("connect: connection refused"))

	save := s.do(http.MethodPost, "/api/portfolio", `{"personal":{"name":"Ada"}}`, map[string]string{HeaderPartialUpdate: "true"})
	reset := s.do(http.MethodDelete, "/api/portfolio", "", nil)

	s.Equal(http.StatusServiceUnavailable, save.Code)
	s.Equal(http.StatusServiceUnavailable, reset.Code)
}

func (s *RouterTestSuite) Test_Reset_WithoutDatabase_Returns503() {
	s.repo.ReadyErr = errors.New("connection refused")

	w := s.do(http.MethodDelete, "/api/portfolio", "", nil)

	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RouterTestSuite) Test_BodyLimit() {
	s.router = s.build(32)

	w := s.do(http.MethodPost, "/api/portfolio", `{"personal":{"name":"`+strings.Repeat("a", 64)+`"}}`, nil)

	s.Equal(http.StatusRequestEntityTooLarge, w.Code)
	s.Zero(s.repo.Saves())
}

func (s *RouterTestSuite) Test_NoRoute() {
	w := s.do(http.MethodGet, "/api/nothing-here", "", nil)

	s.Equal(http.StatusNotFound, w.Code)
	var body map[string]string
	s.decode(w, &body)
	s.Equal("Not found", body["error"])
	s.Equal("/api/nothing-here", body["path"])
}

func (s *RouterTestSuite) Test_Health() {
	w := s.do(http.MethodGet, "/api/health", "", nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("public, max-age=60", w.Header().Get("Cache-Control"))
	var resp HealthResponse
	s.decode(w, &resp)
	s.Equal("OK", resp.Status)
}

func (s *RouterTestSuite) Test_WriteRoutesRequireAdminToken() {
	s.jwt = auth.NewJWTService("test-secret", time.Hour)
	s.router = s.build(1 << 20)

	w := s.do(http.MethodPost, "/api/portfolio", `{}`, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/portfolio", `{}`, map[string]string{"Authorization": "Bearer garbage"})
	s.Equal(http.StatusUnauthorized, w.Code)

	token, err := s.jwt.GenerateToken(auth.RoleAdmin)
	s.Require().NoError(err)
	w = s.do(http.MethodPost, "/api/portfolio", `{}`, map[string]string{"Authorization": "Bearer " + token})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/portfolio", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) Test_Migrate_And_Cleanup() {
	s.legacy.Exists = true
	s.legacy.Doc = &portfolio.LegacyDocument{ID: 3, Data: json.RawMessage(`{"personal":{"name":"Old"}}`)}

	w := s.do(http.MethodPost, "/api/portfolio/migrate", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var migrated MigrateResponse
	s.decode(w, &migrated)
	s.True(migrated.Migrated)

	w = s.do(http.MethodPost, "/api/portfolio/cleanup", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var cleaned CleanupResponse
	s.decode(w, &cleaned)
	s.True(cleaned.Success)
}
