package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/westservices/ticketd/internal/api/http"
	"github.com/westservices/ticketd/internal/api/http/handlers"
	"github.com/westservices/ticketd/internal/archive"
	"github.com/westservices/ticketd/internal/auth"
	"github.com/westservices/ticketd/internal/config"
	"github.com/westservices/ticketd/internal/events"
	"github.com/westservices/ticketd/internal/observability"
	"github.com/westservices/ticketd/internal/persistence"
	"github.com/westservices/ticketd/internal/platform"
	"github.com/westservices/ticketd/internal/repository"
	"github.com/westservices/ticketd/internal/service"
	"github.com/westservices/ticketd/internal/worker"
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

	store, err := persistence.NewFileStore(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open record store", zap.Error(err))
	}

	archiveStore, err := archive.NewStore(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open transcript archive", zap.Error(err))
	}

	statsRepo, err := repository.NewStatsRepository(store)
	if err != nil {
		logger.Fatal("failed to load stats collection", zap.Error(err))
	}
	ratingRepo, err := repository.NewRatingRepository(store)
	if err != nil {
		logger.Fatal("failed to load ratings collection", zap.Error(err))
	}
	blacklistRepo, err := repository.NewBlacklistRepository(store)
	if err != nil {
		logger.Fatal("failed to load blacklist collection", zap.Error(err))
	}
	ticketRepo, err := repository.NewTicketRepository(store, statsRepo, ratingRepo, logger)
	if err != nil {
		logger.Fatal("failed to load tickets collection", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	accessService := service.NewAccessService(service.AccessDependencies{
		BlacklistRepo:   blacklistRepo,
		TicketRepo:      ticketRepo,
		Dispatcher:      dispatcher,
		OpenTicketLimit: cfg.Lifecycle.OpenTicketLimit,
	})
	statsService := service.NewStatsService(statsRepo, ratingRepo)
	authService := service.NewAuthService(cfg.Auth)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	commander := platform.NewLoggingCommander(logger)
	lifecycle := service.NewLifecycleService(cfg.Guild, cfg.Lifecycle, service.LifecycleDependencies{
		TicketRepo: ticketRepo,
		Access:     accessService,
		Archive:    archiveStore,
		Commander:  commander,
		Dispatcher: dispatcher,
		Prompts:    service.NewPromptRegistry(),
		Scheduler:  service.NewScheduler(),
		Responder:  service.NewAutoResponder(),
		Metrics:    metrics,
		Logger:     logger,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketRepo, archiveStore),
		Blacklist:      handlers.NewBlacklistHandler(accessService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	lifecycle.Shutdown()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
