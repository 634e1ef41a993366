package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/services"
)

const TaskIngestDocument = "document:ingest"

// IngestPayload describes one uploaded file waiting to be parsed, chunked
// and written to the vector store by the worker.
type IngestPayload struct {
	FilePath     string `json:"file_path"`
	OriginalName string `json:"original_name"`
	DocumentID   string `json:"document_id"`
}

// NewIngestTask enqueues a document ingest. The document id is assigned
// up front so the API can return it before the worker runs.
func NewIngestTask(filePath, originalName, documentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		FilePath:     filePath,
		OriginalName: originalName,
		DocumentID:   documentID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// IngestProcessor handles queued ingest tasks in the worker binary.
type IngestProcessor struct {
	documents *services.DocumentService
	cache     *services.RetrievalCache
}

func NewIngestProcessor(documents *services.DocumentService, cache *services.RetrievalCache) *IngestProcessor {
	return &IngestProcessor{documents: documents, cache: cache}
}

// ProcessIngest parses the uploaded file and runs the full ingest
// pipeline. The temp file is removed once ingest succeeds or is
// permanently abandoned; parse failures never retry since the bytes will
// not change.
func (p *IngestProcessor) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("Processing queued ingest", "file", payload.OriginalName, "documentId", payload.DocumentID)

	content, err := os.ReadFile(payload.FilePath)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", payload.FilePath, err)
	}

	doc, err := services.ExtractText(content, payload.OriginalName)
	if err != nil {
		os.Remove(payload.FilePath)
		return fmt.Errorf("extract %s: %v: %w", payload.OriginalName, err, asynq.SkipRetry)
	}

	result, err := p.documents.IngestDocument(ctx, doc.Text, services.IngestMeta{
		DocumentID: payload.DocumentID,
		Source:     payload.OriginalName,
		Filetype:   doc.Filetype,
	})
	if err != nil {
		return fmt.Errorf("ingest %s: %w", payload.OriginalName, err)
	}

	p.cache.Invalidate(ctx)
	os.Remove(payload.FilePath)

	logger.Info("Queued ingest completed", "documentId", result.DocumentID, "chunksAdded", result.ChunksAdded)
	return nil
}
