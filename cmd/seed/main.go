package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/desh1993/fitness-mvp/internal/config"
	"github.com/desh1993/fitness-mvp/internal/observability"
	"github.com/desh1993/fitness-mvp/internal/persistence"
	"github.com/desh1993/fitness-mvp/internal/repository"
	"github.com/desh1993/fitness-mvp/internal/seed"
)

func main() {
	memberCount := flag.Int("members", 100, "number of demo members to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("POSTGRES_DSN is required to seed")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	seeder := seed.NewSeeder(
		repository.NewUserRepository(pg.Pool),
		repository.NewMemberRepository(pg.Pool),
		logger,
		seed.WithBcryptCost(cfg.Auth.BcryptCost),
	)

	if _, err := seeder.SeedStaff(ctx); err != nil {
		logger.Fatal("seeding staff failed", zap.Error(err))
	}
	if _, err := seeder.SeedMembers(ctx, *memberCount); err != nil {
		logger.Fatal("seeding members failed", zap.Error(err))
	}
}
