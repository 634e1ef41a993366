// Command ingest bulk-loads local knowledge base files into the vector
// store, for seeding a fresh deployment from a directory of documents.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/ehisj/CustomerAIAgent/internal/ai"
	"github.com/ehisj/CustomerAIAgent/internal/config"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore/chroma"
	"github.com/ehisj/CustomerAIAgent/services"
)

func main() {
	dir := flag.String("dir", "sample_docs", "directory of documents to ingest")
	clear := flag.Bool("clear", false, "drop the collection before ingesting")
	flag.Parse()

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
	documents := services.NewDocumentService(store, embedder, cfg.ChunkSize, cfg.ChunkOverlap)

	if *clear {
		if err := documents.ClearCollection(ctx); err != nil {
			log.Fatal("Failed to clear collection:", err)
		}
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read directory %s: %v", *dir, err)
	}

	ingested, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(*dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read file", "path", path, "error", err)
			skipped++
			continue
		}

		doc, err := services.ExtractText(content, entry.Name())
		if err != nil {
			logger.Warn("Skipping file", "path", path, "error", err)
			skipped++
			continue
		}

		result, err := documents.IngestDocument(ctx, doc.Text, services.IngestMeta{
			Source:   entry.Name(),
			Filetype: doc.Filetype,
		})
		if err != nil {
			log.Fatalf("Failed to ingest %s: %v", entry.Name(), err)
		}

		logger.Info("Ingested document", "file", entry.Name(), "documentId", result.DocumentID, "chunks", result.ChunksAdded)
		ingested++
	}

	stats, err := documents.GetCollectionStats(ctx)
	if err != nil {
		log.Fatal("Failed to read collection stats:", err)
	}

	logger.Info("Bulk ingest complete",
		"ingested", ingested,
		"skipped", skipped,
		"totalChunks", stats.TotalChunks,
		"totalDocuments", stats.TotalDocuments,
	)
}
