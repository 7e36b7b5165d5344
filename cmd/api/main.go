package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-console/internal/api/http"
	"github.com/spec-kit/helpdesk-console/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-console/internal/apiclient"
	"github.com/spec-kit/helpdesk-console/internal/auth"
	"github.com/spec-kit/helpdesk-console/internal/clock"
	"github.com/spec-kit/helpdesk-console/internal/config"
	"github.com/spec-kit/helpdesk-console/internal/events"
	"github.com/spec-kit/helpdesk-console/internal/observability"
	"github.com/spec-kit/helpdesk-console/internal/persistence"
	"github.com/spec-kit/helpdesk-console/internal/query"
	"github.com/spec-kit/helpdesk-console/internal/service"
	"github.com/spec-kit/helpdesk-console/internal/worker"
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

	metrics := observability.NewMetrics()
	api := apiclient.New(cfg.Backend, metrics, logger)
	checks := map[string]handlers.Pinger{"backend": api}

	var store query.Store = query.NewMemoryStore(clock.Real())
	if cfg.Cache.Driver == config.CacheDriverRedis {
		redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
		store = redis.Store()
		checks["redis"] = redis
	}

	dispatcher := events.NewInMemoryDispatcher()
	notices := service.NewNoticeService(dispatcher, events.NewNoticeFeed(cfg.Notices.FeedSize), logger, clock.Real())
	if err := worker.NewNoticeWorker(notices, cfg.Notices.SweepInterval(), cfg.Notices.MaxAge(), logger).Start(ctx); err != nil {
		logger.Fatal("failed to start notice worker", zap.Error(err))
	}

	deps := service.Dependencies{
		API:        api,
		Cache:      query.NewClient(store, cfg.Cache.TTL(), logger),
		Dispatcher: dispatcher,
		Notices:    notices,
		Clock:      clock.Real(),
		Logger:     logger,
	}
	tickets := service.NewTicketService(deps)

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks, metrics),
		Tickets:        handlers.NewTicketsHandler(tickets, cfg.Search.PageSize),
		Board:          handlers.NewBoardHandler(service.NewBoardService(deps, tickets), service.NewTimelineService(deps, tickets)),
		Analytics:      handlers.NewAnalyticsHandler(service.NewAnalyticsService(deps)),
		Queues:         handlers.NewQueuesHandler(service.NewQueueService(deps), service.NewCategoryService(deps)),
		Users:          handlers.NewUsersHandler(service.NewUserService(deps)),
		Notifications:  handlers.NewNotificationsHandler(service.NewNotificationService(deps), notices),
		AuthMiddleware: auth.NewSessionMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)),
		PublicTickets:  cfg.App.PublicTickets,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("backend", cfg.Backend.BaseURL))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
