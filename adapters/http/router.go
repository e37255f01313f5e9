package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/khoahotran/portfolio-site/pkg/auth"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

type RouterConfig struct {
	ServiceName      string
	MaxBodyBytes     int64
	PortfolioHandler *PortfolioHandler
	MediaHandler     *MediaHandler
	AuthHandler      *AuthHandler
	HealthHandler    *HealthHandler
	// JWTService protects write routes when set; nil leaves them open.
	JWTService *auth.JWTService
	Logger     logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(CORS())
	router.Use(ErrorMiddleware(cfg.Logger))
	router.Use(BodyLimit(cfg.MaxBodyBytes))

	writeGuard := func(c *gin.Context) { c.Next() }
	if cfg.JWTService != nil {
		writeGuard = AuthMiddleware(cfg.JWTService)
	}

	api := router.Group("/api")
	{
		api.GET("", cfg.HealthHandler.Index)
		api.GET("/health", cfg.HealthHandler.Health)

		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}

		p := api.Group("/portfolio")
		{
			p.GET("", cfg.PortfolioHandler.GetPortfolio)
			p.GET("/core", cfg.PortfolioHandler.GetCore)
			p.GET("/sections", cfg.PortfolioHandler.GetSections)

			w := p.Group("")
			w.Use(writeGuard)
			{
				w.POST("", cfg.PortfolioHandler.SavePortfolio)
				w.DELETE("", cfg.PortfolioHandler.ResetPortfolio)
				w.POST("/cleanup", cfg.PortfolioHandler.Cleanup)
				w.POST("/migrate", cfg.PortfolioHandler.Migrate)
				if cfg.MediaHandler != nil {
					w.POST("/media", cfg.MediaHandler.UploadMedia)
				}
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "path": c.Request.URL.Path})
	})
	return router
}
