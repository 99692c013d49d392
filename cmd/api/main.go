package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/desh1993/fitness-mvp/internal/api/http"
	"github.com/desh1993/fitness-mvp/internal/api/http/handlers"
	"github.com/desh1993/fitness-mvp/internal/auth"
	"github.com/desh1993/fitness-mvp/internal/config"
	"github.com/desh1993/fitness-mvp/internal/events"
	"github.com/desh1993/fitness-mvp/internal/observability"
	"github.com/desh1993/fitness-mvp/internal/persistence"
	"github.com/desh1993/fitness-mvp/internal/repository"
	"github.com/desh1993/fitness-mvp/internal/service"
	"github.com/desh1993/fitness-mvp/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("fithub")

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo   repository.UserRepository
		memberRepo repository.MemberRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.Pool)
		memberRepo = repository.NewMemberRepository(pg.Pool)
	} else {
		userRepo = repository.NewMemoryUserRepository()
		memberRepo = repository.NewMemoryMemberRepository()
	}

	var (
		sessions auth.SessionStore
		attempts auth.AttemptCounter
	)
	if redis != nil {
		sessions = auth.NewRedisSessionStore(redis.Client)
		attempts = auth.NewRedisAttemptCounter(redis.Client)
	} else {
		sessions = auth.NewMemorySessionStore()
		attempts = auth.NewMemoryAttemptCounter()
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	memberService := service.NewMemberService(cfg.Members, service.MemberDependencies{
		MemberRepo: memberRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Sessions: sessions,
		Throttle: auth.NewLoginThrottle(attempts, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginDecay()),
		Metrics:  metrics,
		Logger:   logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), sessions, userRepo, cfg.Auth.SessionCookie)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.AllowedOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Members:        handlers.NewMembersHandler(memberService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics.Handler(),
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
