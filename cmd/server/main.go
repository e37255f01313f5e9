package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/adapters/event"
	httpAdapter "github.com/khoahotran/portfolio-site/adapters/http"
	"github.com/khoahotran/portfolio-site/adapters/media_storage"
	"github.com/khoahotran/portfolio-site/adapters/persistence"
	"github.com/khoahotran/portfolio-site/internal/application/service"
	authUC "github.com/khoahotran/portfolio-site/internal/application/usecase/auth"
	mediaUC "github.com/khoahotran/portfolio-site/internal/application/usecase/media"
	portfolioUC "github.com/khoahotran/portfolio-site/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-site/internal/config"
	"github.com/khoahotran/portfolio-site/pkg/auth"
	"github.com/khoahotran/portfolio-site/pkg/logger"
	"github.com/khoahotran/portfolio-site/pkg/tracing"
)

const serviceName = "portfolio-api"

func main() {
	startedAt := time.Now()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting Portfolio API Server...", zap.String("env", cfg.App.Env))

	ctx := context.Background()
	shutdownTracer, err := tracing.NewTracerProvider(ctx, cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", err)
	}
	defer shutdownTracer(context.Background())

	// Database. A missing DSN is a supported mode, not a startup failure.
	conn := persistence.NewConnector(cfg, appLogger)
	defer conn.Close()
	if !conn.Configured() {
		appLogger.Warn("DB_DSN is not set; serving default content and rejecting writes")
	}

	// Redis (optional): snapshot cache and invalidation channel
	redisClient, err := persistence.NewRedisClient(cfg)
	if err != nil {
		appLogger.Warn("Redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var cache service.SnapshotCache = persistence.NewNoopSnapshotCache()
	publishers := []service.EventPublisher{}
	if redisClient != nil {
		cache = persistence.NewRedisSnapshotCache(redisClient, cfg.Redis.CacheTTL, appLogger)
		publishers = append(publishers, event.NewRedisPublisher(redisClient, cfg.Redis.Channel))
	}

	// Kafka (optional): portfolio events for the backup worker
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := event.NewKafkaPublisher(cfg)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		publishers = append(publishers, kafkaPublisher)
	}
	publisher := event.NewMultiPublisher(publishers...)
	defer publisher.Close()

	// Repositories
	portfolioRepo := persistence.NewPostgresPortfolioRepo(conn, appLogger)
	legacyRepo := persistence.NewPostgresLegacyRepo(conn, appLogger)

	// Use Cases
	getPortfolioUseCase := portfolioUC.NewGetPortfolioUseCase(portfolioRepo, cache, cfg.DB.SectionTimeout, appLogger)
	savePortfolioUseCase := portfolioUC.NewSavePortfolioUseCase(portfolioRepo, cache, publisher, appLogger)
	resetPortfolioUseCase := portfolioUC.NewResetPortfolioUseCase(portfolioRepo, cache, publisher, appLogger)
	migrateLegacyUseCase := portfolioUC.NewMigrateLegacyUseCase(portfolioRepo, legacyRepo, cache, publisher, appLogger)

	if conn.Configured() && cfg.DB.MigrateOnStart {
		runStartupMigrations(ctx, cfg, conn, migrateLegacyUseCase, appLogger)
	}

	// Media (optional)
	var mediaHandler *httpAdapter.MediaHandler
	if cfg.CloudinaryConfigured() {
		uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
		if err != nil {
			appLogger.Error("Failed to initialize uploader, media uploads disabled", err)
		} else {
			mediaHandler = httpAdapter.NewMediaHandler(mediaUC.NewUploadMediaUseCase(uploader, appLogger), appLogger)
		}
	}

	// Auth (optional): guards write routes when configured
	var jwtSvc *auth.JWTService
	var authHandler *httpAdapter.AuthHandler
	if cfg.AuthEnabled() {
		jwtSvc = auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
		authHandler = httpAdapter.NewAuthHandler(authUC.NewLoginUseCase(cfg.Auth.AdminPasswordHash, jwtSvc, appLogger))
	} else {
		appLogger.Warn("Admin auth is not configured; write routes are open")
	}

	// HTTP Handlers
	portfolioHandler := httpAdapter.NewPortfolioHandler(
		getPortfolioUseCase,
		savePortfolioUseCase,
		resetPortfolioUseCase,
		migrateLegacyUseCase,
		appLogger,
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ServiceName:      serviceName,
		MaxBodyBytes:     cfg.App.MaxBodyBytes,
		PortfolioHandler: portfolioHandler,
		MediaHandler:     mediaHandler,
		AuthHandler:      authHandler,
		HealthHandler:    httpAdapter.NewHealthHandler(startedAt),
		JWTService:       jwtSvc,
		Logger:           appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", err)
	}
	appLogger.Info("Server stopped")
}

// runStartupMigrations applies the schema and folds any legacy document into
// the normalized tables. Failures are logged; the server still starts and
// reads fall back to defaults.
func runStartupMigrations(ctx context.Context, cfg config.Config, conn *persistence.Connector, migrateUC *portfolioUC.MigrateLegacyUseCase, log logger.Logger) {
	if err := persistence.ApplySchema(cfg.DB.MigrationsPath, conn.DSN(), log); err != nil {
		log.Error("Schema migration failed", err)
		return
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	out, err := migrateUC.Execute(migrateCtx)
	if err != nil {
		log.Error("Legacy migration failed", err)
		return
	}
	log.Info("Legacy migration finished", zap.Bool("migrated", out.Migrated), zap.String("message", out.Message))
}
