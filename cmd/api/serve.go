package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/operalog/api/internal/api/http"
	"github.com/operalog/api/internal/api/http/handlers"
	"github.com/operalog/api/internal/auth"
	"github.com/operalog/api/internal/cache"
	"github.com/operalog/api/internal/events"
	"github.com/operalog/api/internal/observability"
	"github.com/operalog/api/internal/persistence"
	"github.com/operalog/api/internal/repository"
	"github.com/operalog/api/internal/service"
	"github.com/operalog/api/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.RunMigrations {
		if err := migrateUp(cfg.Postgres.DSN, logger); err != nil {
			return err
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	forwarderDone := make(chan struct{})
	close(forwarderDone)
	if cfg.RabbitMQ.URL != "" {
		publisher, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			logger.Warn("rabbitmq unavailable; events stay local", zap.Error(err))
		} else {
			defer publisher.Close() //nolint:errcheck
			forwarder := worker.NewEventForwarder(publisher, logger, 0)
			forwarder.Register(dispatcher)
			done := make(chan struct{})
			go func() {
				defer close(done)
				forwarder.Run(workerCtx)
			}()
			forwarderDone = done
			logger.Info("forwarding events to rabbitmq", zap.String("queue", cfg.RabbitMQ.Queue))
		}
	}

	db := pg.DB()
	userRepo := repository.NewUserRepository(db)
	shipRepo := repository.NewShipRepository(db)
	reportRepo := repository.NewReportRepository(db)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gate := auth.NewGate(tokens, auth.NewResolver(userRepo, shipRepo), metrics)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		ShipRepo:   shipRepo,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	shipService := service.NewShipService(service.ShipDependencies{
		ShipRepo:   shipRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo: reportRepo,
		StatsCache: cache.NewRedisStatsCache(rdb.Cmdable(), cfg.Cache.StatsTTL),
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	var redisPinger handlers.Pinger
	if rdb.Client != nil {
		redisPinger = rdb
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger),
		Auth:           handlers.NewAuthHandler(authService),
		Ships:          handlers.NewShipsHandler(shipService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: auth.NewAuthMiddleware(gate, logger),
		Metrics:        metrics,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancelWorkers()
	<-forwarderDone
	return nil
}
