package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	portfolioUC "github.com/khoahotran/portfolio-site/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type PortfolioHandler struct {
	getUC     *portfolioUC.GetPortfolioUseCase
	saveUC    *portfolioUC.SavePortfolioUseCase
	resetUC   *portfolioUC.ResetPortfolioUseCase
	migrateUC *portfolioUC.MigrateLegacyUseCase
	logger    logger.Logger
}

func NewPortfolioHandler(
	getUC *portfolioUC.GetPortfolioUseCase,
	saveUC *portfolioUC.SavePortfolioUseCase,
	resetUC *portfolioUC.ResetPortfolioUseCase,
	migrateUC *portfolioUC.MigrateLegacyUseCase,
	log logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		getUC:     getUC,
		saveUC:    saveUC,
		resetUC:   resetUC,
		migrateUC: migrateUC,
		logger:    log,
	}
}

// GetPortfolio always answers 200; failures fall back to default content.
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	snap := h.getUC.ExecuteFull(c.Request.Context())
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, ToPortfolioResponse(snap))
}

func (h *PortfolioHandler) GetCore(c *gin.Context) {
	out := h.getUC.ExecuteCore(c.Request.Context())
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, CoreResponse{
		Data:         out.Core,
		IsCustomized: out.IsCustomized,
		Version:      out.Version,
		Timestamp:    nowTimestamp(),
	})
}

func (h *PortfolioHandler) GetSections(c *gin.Context) {
	sections := portfolio.ParseSections(c.Query("include"))
	if len(sections) == 0 {
		c.Error(apperror.NewInvalidInput("no sections specified, use ?include=skills,projects", nil))
		return
	}

	out := h.getUC.ExecuteSections(c.Request.Context(), sections)
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, SectionsResponse{
		Data:      out.Sections,
		Version:   out.Version,
		Timestamp: nowTimestamp(),
	})
}

// SavePortfolio validates the body before anything touches the database.
func (h *PortfolioHandler) SavePortfolio(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if isBodyTooLarge(err) {
			c.Error(apperror.NewTooLarge("portfolio payload exceeds the configured limit"))
			return
		}
		c.Error(apperror.NewInvalidInput("failed to read request body", err))
		return
	}

	patch, err := portfolio.ParsePatch(raw)
	if err != nil {
		c.Error(apperror.NewInvalidInput("Invalid data format", err))
		return
	}

	input := portfolioUC.SaveInput{
		Patch:   patch,
		Partial: isPartialUpdate(c.GetHeader(HeaderPartialUpdate)),
	}
	out, err := h.saveUC.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, SaveResponse{
		Success:   true,
		Message:   "Portfolio data saved successfully",
		Version:   out.Version,
		Timestamp: out.Timestamp,
	})
}

func (h *PortfolioHandler) ResetPortfolio(c *gin.Context) {
	out, err := h.resetUC.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ResetResponse{
		Success:   true,
		Message:   "Portfolio reset to default",
		Data:      out.Snapshot.Document,
		Version:   out.Snapshot.Version,
		Timestamp: out.Timestamp,
	})
}

func (h *PortfolioHandler) Cleanup(c *gin.Context) {
	out, err := h.migrateUC.ExecuteCleanup(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CleanupResponse{
		Success: true,
		Message: out.Message,
		Removed: out.Removed,
		Dropped: out.Dropped,
	})
}

// Migrate runs the legacy migration on demand.
func (h *PortfolioHandler) Migrate(c *gin.Context) {
	out, err := h.migrateUC.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, MigrateResponse{
		Success:  true,
		Message:  out.Message,
		Migrated: out.Migrated,
		Version:  out.Version,
	})
}

func isPartialUpdate(v string) bool {
	partial, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && partial
}
