package http

import (
	"time"

	portfolioUC "github.com/khoahotran/portfolio-site/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

func nowTimestamp() string {
	return time.Now().UTC().Format(portfolioUC.TimestampLayout)
}

type PortfolioResponse struct {
	Data         portfolio.Document `json:"data"`
	IsCustomized bool               `json:"isCustomized"`
	Version      int64              `json:"version"`
	Timestamp    string             `json:"timestamp"`
}

type CoreResponse struct {
	Data         portfolio.Core `json:"data"`
	IsCustomized bool           `json:"isCustomized"`
	Version      int64          `json:"version"`
	Timestamp    string         `json:"timestamp"`
}

type SectionsResponse struct {
	Data      map[portfolio.Section]any `json:"data"`
	Version   int64                     `json:"version"`
	Timestamp string                    `json:"timestamp"`
}

type SaveResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Version   int64  `json:"version"`
	Timestamp string `json:"timestamp"`
}

type ResetResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Data      portfolio.Document `json:"data"`
	Version   int64              `json:"version"`
	Timestamp string             `json:"timestamp"`
}

type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Removed int64  `json:"removed"`
	Dropped bool   `json:"dropped"`
}

type MigrateResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Migrated bool   `json:"migrated"`
	Version  int64  `json:"version,omitempty"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

type MediaResponse struct {
	Success      bool   `json:"success"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	PublicID     string `json:"publicId"`
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

func ToPortfolioResponse(snap portfolio.Snapshot) PortfolioResponse {
	portfolio.EnsureSections(&snap.Document)
	return PortfolioResponse{
		Data:         snap.Document,
		IsCustomized: snap.IsCustomized,
		Version:      snap.Version,
		Timestamp:    nowTimestamp(),
	}
}
