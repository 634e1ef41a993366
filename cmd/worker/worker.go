package main

import (
	"context"
	"log"

	"github.com/ehisj/CustomerAIAgent/internal/ai"
	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/queue"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore/chroma"
	"github.com/ehisj/CustomerAIAgent/services"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	ctx := context.Background()

	embedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to init embedder:", err)
	}
	defer embedder.Close()

	store := chroma.New(chroma.Config{
		Host:       cfg.ChromaHost,
		Collection: cfg.CollectionName,
	})

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	documents := services.NewDocumentService(store, embedder, cfg.ChunkSize, cfg.ChunkOverlap)
	cache := services.NewRetrievalCache(redisClient, 0)

	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to parse Redis settings:", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewIngestProcessor(documents, cache)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.ProcessIngest)

	logger.Info("Starting ingest worker", "concurrency", 10, "queues", "critical(6), default(3), low(1)")

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
