package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/khoahotran/portfolio-site/adapters/event"
	"github.com/khoahotran/portfolio-site/adapters/persistence"
	portfolioUC "github.com/khoahotran/portfolio-site/internal/application/usecase/portfolio"
	"github.com/khoahotran/portfolio-site/internal/config"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-site/pkg/auth"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

// Seeds the database with a portfolio document. SEED_FILE points at a JSON
// document; without it the built-in defaults are written. ADMIN_PASSWORD, if
// set, is hashed for ADMIN_PASSWORD_HASH.
func main() {
	fmt.Println("seeding portfolio into database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	if !cfg.DatabaseConfigured() {
		log.Fatalf("DB_DSN (or DATABASE_URL) must be set")
	}

	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatalf("cannot hash password: %v", err)
		}
		fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", hash)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	conn := persistence.NewConnector(cfg, appLogger)
	defer conn.Close()

	if err := persistence.ApplySchema(cfg.DB.MigrationsPath, conn.DSN(), appLogger); err != nil {
		log.Fatalf("cannot apply schema: %v", err)
	}

	repo := persistence.NewPostgresPortfolioRepo(conn, appLogger)
	cache := persistence.NewNoopSnapshotCache()
	publisher := event.NewNoopPublisher()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seedFile := os.Getenv("SEED_FILE")
	if seedFile == "" {
		out, err := portfolioUC.NewResetPortfolioUseCase(repo, cache, publisher, appLogger).Execute(ctx)
		if err != nil {
			log.Fatalf("cannot seed defaults: %v", err)
		}
		fmt.Printf("seeded default portfolio, version %d\n", out.Snapshot.Version)
		return
	}

	raw, err := os.ReadFile(seedFile)
	if err != nil {
		log.Fatalf("cannot read %s: %v", seedFile, err)
	}
	patch, err := portfolio.ParsePatch(raw)
	if err != nil {
		log.Fatalf("%s is not a portfolio document: %v", seedFile, err)
	}
	out, err := portfolioUC.NewSavePortfolioUseCase(repo, cache, publisher, appLogger).
		Execute(ctx, portfolioUC.SaveInput{Patch: patch})
	if err != nil {
		log.Fatalf("cannot save %s: %v", seedFile, err)
	}
	fmt.Printf("seeded portfolio from %s, version %d\n", seedFile, out.Version)
}
