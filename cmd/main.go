package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/ai"
	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/queue"
	"github.com/ehisj/CustomerAIAgent/internal/telemetry"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore/chroma"
	"github.com/ehisj/CustomerAIAgent/middleware"
	"github.com/ehisj/CustomerAIAgent/routes"
	"github.com/ehisj/CustomerAIAgent/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Tracing is opt-in; without it the otel globals are no-ops.
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("customer-ai-agent", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	ctx := context.Background()

	// MongoDB backs conversation history; the service degrades without it.
	var history *services.HistoryService
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Warn("MongoDB unavailable, conversation history disabled", "error", err)
	} else {
		history = services.NewHistoryService(mongoClient.Database(cfg.DBName))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()
	}

	// Redis backs rate limiting, caches and the task queue; all of them
	// degrade without it.
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, rate limiting and caching disabled", "error", err)
		redisClient = nil
	}

	store := chroma.New(chroma.Config{
		Host:       cfg.ChromaHost,
		Collection: cfg.CollectionName,
	})

	embedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to init embedder:", err)
	}
	defer embedder.Close()

	chatClient, err := ai.NewChatClient(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to init LLM client:", err)
	}
	defer chatClient.Close()

	var speech *services.SpeechService
	if cfg.SpeechEnabled() {
		speechClient, err := ai.NewSpeechClient(cfg)
		if err != nil {
			log.Fatal("Failed to init speech client:", err)
		}
		speech = services.NewSpeechService(speechClient, redisClient, time.Duration(cfg.TTSCacheTTL)*time.Second)
	} else {
		logger.Warn("OPENAI_API_KEY not set, voice endpoints disabled")
	}

	documents := services.NewDocumentService(store, embedder, cfg.ChunkSize, cfg.ChunkOverlap).
		WithMetrics(metrics, cfg.EmbeddingsProvider)
	llm := services.NewLLMService(chatClient, cfg.ConfidenceThreshold)
	cache := services.NewRetrievalCache(redisClient, 5*time.Minute)

	var queueClient *asynq.Client
	if redisClient != nil {
		redisOpt, err := queue.RedisOpt(cfg)
		if err != nil {
			log.Fatal("Failed to parse Redis settings for task queue:", err)
		}
		queueClient = asynq.NewClient(redisOpt)
		defer queueClient.Close()
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload directory:", err)
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))
	if redisClient != nil {
		router.Use(middleware.RateLimitMiddleware(redisClient, cfg))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupChatRoutes(router, routes.ChatDeps{
		Config:    cfg,
		Documents: documents,
		LLM:       llm,
		Speech:    speech,
		History:   history,
		Cache:     cache,
	})
	routes.SetupDocumentRoutes(router, routes.DocumentDeps{
		Config:    cfg,
		Documents: documents,
		Cache:     cache,
		Queue:     queueClient,
	})
	routes.SetupIngestRoutes(router, routes.IngestDeps{
		Config:    cfg,
		Documents: documents,
		Cache:     cache,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "provider", cfg.EmbeddingsProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
