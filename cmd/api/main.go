package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/chatloom/chat-service/internal/api/http"
	"github.com/chatloom/chat-service/internal/api/http/handlers"
	"github.com/chatloom/chat-service/internal/auth"
	"github.com/chatloom/chat-service/internal/config"
	"github.com/chatloom/chat-service/internal/content"
	"github.com/chatloom/chat-service/internal/events"
	"github.com/chatloom/chat-service/internal/media"
	"github.com/chatloom/chat-service/internal/observability"
	"github.com/chatloom/chat-service/internal/persistence"
	"github.com/chatloom/chat-service/internal/repository"
	"github.com/chatloom/chat-service/internal/service"
	"github.com/chatloom/chat-service/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	uploader, err := media.NewMinioUploader(cfg.Media, logger)
	if err != nil {
		logger.Fatal("failed to connect object store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	threadRepo := repository.NewThreadRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	permissionRepo := repository.NewPermissionRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	resolver := service.NewPermissionResolver(permissionRepo, redis.Client, cfg.Redis.PermissionTTL(), logger)
	classifier := content.NewClassifier(content.NewKeywordDetector(), logger)

	messageService := service.NewMessageService(service.MessageDependencies{
		MessageRepo:     messageRepo,
		ThreadRepo:      threadRepo,
		ParticipantRepo: participantRepo,
		PermissionRepo:  permissionRepo,
		Resolver:        resolver,
		Classifier:      classifier,
		Uploader:        uploader,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	authService := service.NewAuthService(*cfg, userRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Messages:       handlers.NewMessagesHandler(messageService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
