package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"passage-server/internal/authutils"
	"passage-server/internal/cache"
	"passage-server/internal/config"
	"passage-server/internal/handler"
	"passage-server/internal/interfaces"
	"passage-server/internal/logger"
	"passage-server/internal/messaging"
	"passage-server/internal/middleware"
	"passage-server/internal/service"
	"passage-server/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	log.Println("Starting passage server...")

	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
		Service:     "passage-server",
		Development: cfg.Env == "development",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	zap.ReplaceGlobals(appLogger)
	appLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg, storage.Options{
		ConnectRetries: 50,
		RetryDelay:     3 * time.Second,
		Migrate:        cfg.MigrateOnStart,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open graph store", zap.Error(err))
	}
	defer backend.Close()
	repos := backend.Repositories
	appLogger.Info("Graph store ready", zap.String("driver", backend.Driver))

	passageCache, redisClient := setupCache(ctx, cfg, appLogger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	directRecorder := service.NewDirectVisitRecorder(repos.Visits, appLogger)
	var visits interfaces.VisitRecorder = directRecorder
	var visitConsumer *messaging.VisitConsumer
	var mqConn *amqp.Connection
	if cfg.QueueEnabled() {
		mqConn, err = messaging.Connect(ctx, cfg.RabbitMQURL, 10, 5*time.Second, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		publisher, err := messaging.NewVisitPublisher(mqConn, cfg.VisitQueueName, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create visit publisher", zap.Error(err))
		}
		visits = publisher

		processor := messaging.NewProcessor(directRecorder, appLogger)
		visitConsumer = messaging.NewVisitConsumer(mqConn, cfg.VisitQueueName, cfg.VisitConsumerConcurrency, processor, appLogger)
		go func() {
			appLogger.Info("Starting visit consumer...")
			if err := visitConsumer.Start(); err != nil {
				appLogger.Error("Visit consumer stopped with error", zap.Error(err))
				return
			}
			appLogger.Info("Visit consumer stopped")
		}()
	} else {
		appLogger.Info("RABBITMQ_URL not set, visits are written directly to the store")
	}

	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}

	allocator := service.NewPassageNumberAllocator(repos.Passages, cfg.PassageNumberMaxAttempts, appLogger)
	navigationService := service.NewNavigationService(repos, passageCache, appLogger)
	authoringService := service.NewAuthoringService(repos, allocator, passageCache, appLogger)
	csvService := service.NewCSVService(repos, passageCache, appLogger)
	passageHandler := handler.NewPassageHandler(navigationService, authoringService, csvService, visits, verifier.VerifyToken, appLogger)
	communityHandler := handler.NewCommunityHandler(
		service.NewBookmarkService(repos, appLogger),
		service.NewFeedbackService(repos, appLogger),
		verifier.VerifyToken,
		appLogger,
	)
	analyticsHandler := handler.NewAnalyticsHandler(service.NewAnalyticsService(repos), verifier.VerifyToken, appLogger)

	router := setupRouter(cfg, appLogger, passageHandler, communityHandler, analyticsHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	if visitConsumer != nil {
		visitConsumer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exiting")
}

// setupCache returns the Redis-backed passage number cache, or a no-op cache
// when Redis is not configured or unreachable.
func setupCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.PassageNumberCache, *redis.Client) {
	if !cfg.CacheEnabled() {
		logger.Info("REDIS_ADDR not set, passage number cache disabled")
		return cache.NoopPassageCache{}, nil
	}
	client, err := cache.Connect(ctx, cache.Options{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		MaxRetries: 10,
		RetryDelay: 3 * time.Second,
	}, logger)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without passage number cache", zap.Error(err))
		return cache.NoopPassageCache{}, nil
	}
	return cache.NewRedisPassageCache(client, cfg.PassageCacheTTL, logger), client
}

// routeRegistrar is implemented by every HTTP handler.
type routeRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

func setupRouter(cfg *config.Config, logger *zap.Logger, handlers ...routeRegistrar) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ZapLoggingMiddlewareForGin(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	// after the routes, so /metrics sees them all
	p.Use(router)
	return router
}
