package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-site/adapters/event"
	"github.com/khoahotran/portfolio-site/adapters/media_storage"
	"github.com/khoahotran/portfolio-site/adapters/persistence"
	backupUC "github.com/khoahotran/portfolio-site/internal/application/usecase/backup"
	portfolioUC "github.com/khoahotran/portfolio-site/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-site/internal/config"
	"github.com/khoahotran/portfolio-site/pkg/logger"
	"github.com/khoahotran/portfolio-site/pkg/tracing"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting Portfolio Backup Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.NewTracerProvider(ctx, cfg, appLogger, "portfolio-worker")
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", err)
	}
	defer shutdownTracer(context.Background())

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("KAFKA_BROKERS is required for the worker", nil)
	}
	if !cfg.DatabaseConfigured() {
		appLogger.Fatal("DB_DSN is required for the worker", nil)
	}

	// Database
	conn := persistence.NewConnector(cfg, appLogger)
	defer conn.Close()

	// Cloudinary Uploader
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Repositories
	portfolioRepo := persistence.NewPostgresPortfolioRepo(conn, appLogger)

	// Worker Use Case. Backups always read the database, never a cache.
	reader := portfolioUC.NewGetPortfolioUseCase(portfolioRepo, persistence.NewNoopSnapshotCache(), cfg.DB.SectionTimeout, appLogger)
	backupUseCase := backupUC.NewBackupUseCase(reader, uploader, appLogger)

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", cfg.Kafka.Topic), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		l := appLogger.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.String("key", string(msg.Key)))

		evt, err := event.DecodeEvent(msg)
		if err != nil {
			l.Error("Failed to decode event, skipping", err)
			commitMessage(consumer, msg, l)
			continue
		}

		l.Info("Processing event", zap.String("type", string(evt.Type)), zap.Int64("version", evt.Version))
		if _, err := backupUseCase.Execute(ctx, evt); err != nil {
			l.Error("Failed to back up portfolio", err)
			continue
		}

		commitMessage(consumer, msg, l)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
