package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizmas-service/config"
	"quizmas-service/internal/auth"
	"quizmas-service/internal/events"
	"quizmas-service/internal/game"
	"quizmas-service/internal/handlers"
	"quizmas-service/internal/middleware"
	"quizmas-service/internal/models"
	"quizmas-service/internal/repository"
	"quizmas-service/internal/store"
	ws "quizmas-service/internal/websocket"
	"quizmas-service/pkg/cache"
	"quizmas-service/pkg/database"
	"quizmas-service/pkg/messaging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()
	log.Info("Configuration loaded")

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Info("Connected to PostgreSQL")
	defer pgClient.Close()

	questionRepo := repository.NewQuestionRepository(pgClient.GetDB())
	quizRepo := repository.NewQuizRepository(pgClient.GetDB())
	categoryRepo := repository.NewCategoryRepository(pgClient.GetDB())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgClient.InitSchema(ctx); err != nil {
		log.Warnf("Failed to initialize PostgreSQL schema: %v", err)
	} else {
		log.Info("PostgreSQL schema initialized")
		if cfg.Game.SeedDefaultData {
			if err := repository.SeedDefaults(ctx, categoryRepo, questionRepo); err != nil {
				log.Warnf("Failed to seed default data: %v", err)
			}
		}
	}
	cancel()

	history, closeHistory := newHistoryStore(cfg, pgClient)
	defer closeHistory()

	gameStore, redisClient, err := newGameStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	opts := []game.Option{game.WithDefaults(defaultSettings(cfg))}
	if publisher != nil {
		opts = append(opts, game.WithPublisher(publisher))
	}
	svc := game.NewService(gameStore, repository.NewContentSource(questionRepo, quizRepo), history, opts...)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.HostTokenTTL)
	hub := ws.NewHub(svc, gameStore, tokens)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	log.Info("WebSocket hub started")

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "quizmas-service",
			"clients": hub.ClientCount(),
		})
	})

	healthServer := health.NewServer()
	router.GET("/ready", func(c *gin.Context) {
		if err := checkReady(c.Request.Context(), pgClient, redisClient); err != nil {
			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	wsHandler := handlers.NewWebSocketHandler(hub, cfg.Server.AllowedOrigins)
	router.GET("/ws", wsHandler.HandleWebSocket)

	handlers.RegisterAPI(router,
		handlers.NewGameHandler(svc, history, repository.NewStatsReader(questionRepo, quizRepo, history)),
		handlers.NewContentHandler(questionRepo, quizRepo, categoryRepo),
	)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.HTTPPort,
		Handler: router,
	}
	log.Infof("Quizmas Service HTTP server starting on port %s...", cfg.Server.HTTPPort)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	log.Infof("Quizmas Service gRPC health server starting on port %s...", cfg.Server.GRPCPort)
	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			log.Fatalf("Failed to listen on gRPC port: %v", err)
		}
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	healthServer.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %v", err)
	}
	stopHub()
	grpcServer.GracefulStop()

	log.Info("Quizmas Service stopped")
}

func defaultSettings(cfg *config.Config) models.Settings {
	settings := game.DefaultSettings()
	if cfg.Game.DefaultQuestionCount > 0 {
		settings.QuestionCount = cfg.Game.DefaultQuestionCount
	}
	if cfg.Game.DefaultTimePerQuestion > 0 {
		settings.TimePerQuestion = cfg.Game.DefaultTimePerQuestion
	}
	return settings
}

// newGameStore connects the live game store. The in-process store only suits a
// single instance, so it is used when GAME_STORE=memory and never as a fallback.
func newGameStore(cfg *config.Config) (store.Store, *cache.RedisClient, error) {
	if cfg.Store.Backend == "memory" {
		log.Info("Using in-memory game store")
		return store.NewMemoryStore(), nil, nil
	}

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Connected to Redis")
	return cache.NewGameStore(redisClient, cfg.Redis.GameTTL), redisClient, nil
}

func newHistoryStore(cfg *config.Config, pgClient *database.PostgresClient) (repository.HistoryStore, func()) {
	if cfg.Store.History != "mongo" {
		return repository.NewHistoryRepository(pgClient.GetDB()), func() {}
	}

	mongoClient, err := database.NewMongoClient(&cfg.Mongo)
	if err != nil {
		log.Warnf("Failed to connect to MongoDB, recording history in PostgreSQL: %v", err)
		return repository.NewHistoryRepository(pgClient.GetDB()), func() {}
	}
	log.Info("Connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mongoClient.EnsureIndex(ctx, repository.HistoryCollection, "played_at"); err != nil {
		log.Warnf("Failed to create history index: %v", err)
	}

	return repository.NewMongoHistoryRepository(mongoClient.Database()), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Close(ctx); err != nil {
			log.Warnf("Failed to close MongoDB client: %v", err)
		}
	}
}

// newPublisher connects the configured lifecycle event broker. The returned
// publisher is nil when events are disabled or the broker is unreachable.
func newPublisher(cfg *config.Config) (game.Publisher, func()) {
	switch cfg.Broker.Kind {
	case "rabbitmq":
		client, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
		if err != nil {
			log.Warnf("Failed to connect to RabbitMQ, lifecycle events disabled: %v", err)
			return nil, func() {}
		}
		log.Info("Connected to RabbitMQ")
		return events.NewQueuePublisher(client, events.RabbitMQQueue), func() { client.Close() }

	case "nats":
		client, err := messaging.NewNATSClient(&cfg.NATS)
		if err != nil {
			log.Warnf("Failed to connect to NATS, lifecycle events disabled: %v", err)
			return nil, func() {}
		}
		log.Info("Connected to NATS")
		return events.NewSubjectPublisher(client), func() { client.Close() }

	case "", "none":
		return nil, func() {}

	default:
		log.Warnf("Unknown EVENT_BROKER %q, lifecycle events disabled", cfg.Broker.Kind)
		return nil, func() {}
	}
}

func checkReady(ctx context.Context, pgClient *database.PostgresClient, redisClient *cache.RedisClient) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := pgClient.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if redisClient != nil {
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
