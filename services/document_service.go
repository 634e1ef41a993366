package services

import (
	"context"
	"sort"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/ai"
	"github.com/ehisj/CustomerAIAgent/internal/chunker"
	"github.com/ehisj/CustomerAIAgent/internal/logger"
	"github.com/ehisj/CustomerAIAgent/internal/telemetry"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
	"github.com/ehisj/CustomerAIAgent/models"

	"github.com/google/uuid"
)

// IngestMeta carries optional caller-supplied metadata for an ingest.
// DocumentID, when set, acts as an idempotent re-ingest key.
type IngestMeta struct {
	DocumentID string
	Source     string
	Filetype   string
	UploadedAt string
}

// DocumentService owns the chunk/embed/store pipeline and the grouped
// document lifecycle on top of the vector store.
type DocumentService struct {
	store        vectorstore.Store
	embedder     ai.Embedder
	chunkSize    int
	chunkOverlap int
	metrics      *telemetry.Metrics
	provider     string
}

func NewDocumentService(store vectorstore.Store, embedder ai.Embedder, chunkSize, chunkOverlap int) *DocumentService {
	return &DocumentService{
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// WithMetrics attaches ingest/query instrumentation.
func (s *DocumentService) WithMetrics(m *telemetry.Metrics, provider string) *DocumentService {
	s.metrics = m
	s.provider = provider
	return s
}

// IngestDocument chunks text, embeds all chunks in one batch call and
// writes them to the store as a single batch. Either every chunk of the
// document is written or the call reports failure; embedding happens
// before the write, so an embedding failure persists nothing.
func (s *DocumentService) IngestDocument(ctx context.Context, text string, meta IngestMeta) (*models.IngestResult, error) {
	chunks := chunker.Split(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}

	documentID := meta.DocumentID
	if documentID == "" {
		documentID = uuid.New().String()
	}

	logger.Info("Chunking document", "chunks", len(chunks), "source", meta.Source, "documentId", documentID)

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	uploadedAt := meta.UploadedAt
	if uploadedAt == "" {
		uploadedAt = now
	}

	ids := make([]string, len(chunks))
	metas := make([]vectorstore.ChunkMeta, len(chunks))
	for i := range chunks {
		ids[i] = uuid.New().String()
		metas[i] = vectorstore.ChunkMeta{
			DocumentID: documentID,
			ChunkIndex: i,
			ChunkTotal: len(chunks),
			Source:     meta.Source,
			Filetype:   meta.Filetype,
			IngestedAt: now,
			UploadedAt: uploadedAt,
		}
	}

	if err := s.store.Upsert(ctx, ids, vectors, chunks, metas); err != nil {
		return nil, &StoreError{Op: "upsert", Err: err}
	}

	if s.metrics != nil {
		s.metrics.RecordIngest(int64(len(chunks)), s.provider)
	}

	logger.Info("Document ingested", "chunksAdded", len(chunks), "documentId", documentID)
	return &models.IngestResult{DocumentID: documentID, ChunksAdded: len(chunks)}, nil
}

// QueryRelevant embeds the query once and returns up to k nearest chunks,
// nearest first. An empty collection yields an empty slice, not an error.
func (s *DocumentService) QueryRelevant(ctx context.Context, query string, k int) ([]vectorstore.Neighbor, error) {
	start := time.Now()

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(vectors) == 0 {
		return nil, &EmbeddingError{Err: ErrEmptyInput}
	}

	neighbors, err := s.store.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	if s.metrics != nil {
		s.metrics.RecordQuery(time.Since(start).Seconds(), len(neighbors))
	}

	logger.Info("Vector query completed", "query", truncate(query, 50), "results", len(neighbors))
	return neighbors, nil
}

// ListDocuments scans all chunk metadata and groups it into per-document
// summaries, newest upload first. Records without a timestamp sort last.
// The full scan is acceptable for the small corpora this service targets.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	_, metas, err := s.store.GetByFilter(ctx, "", "")
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}

	grouped := make(map[string]*models.DocumentSummary)
	var order []string
	for _, meta := range metas {
		key := meta.Key()
		doc, ok := grouped[key]
		if !ok {
			filename := meta.Source
			if filename == "" {
				filename = "Unknown"
			}
			filetype := meta.Filetype
			if filetype == "" {
				filetype = "txt"
			}
			uploadedAt := meta.IngestedAt
			if uploadedAt == "" {
				uploadedAt = meta.UploadedAt
			}
			doc = &models.DocumentSummary{
				DocumentID: key,
				Filename:   filename,
				Filetype:   filetype,
				UploadedAt: uploadedAt,
			}
			grouped[key] = doc
			order = append(order, key)
		}
		doc.ChunkCount++
	}

	documents := make([]models.DocumentSummary, 0, len(order))
	for _, key := range order {
		documents = append(documents, *grouped[key])
	}

	sort.SliceStable(documents, func(i, j int) bool {
		a, b := documents[i].UploadedAt, documents[j].UploadedAt
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		// RFC 3339 timestamps compare correctly as strings.
		return a > b
	})

	logger.Info("Listed documents", "count", len(documents))
	return documents, nil
}

// DeleteDocument removes every chunk whose documentId matches. When none
// match it retries against the legacy source key before reporting a
// not-found result.
func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) (*models.DeleteResult, error) {
	ids, _, err := s.store.GetByFilter(ctx, "documentId", documentID)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}

	if len(ids) == 0 {
		ids, _, err = s.store.GetByFilter(ctx, "source", documentID)
		if err != nil {
			return nil, &StoreError{Op: "get", Err: err}
		}
		if len(ids) == 0 {
			logger.Warn("Document not found for deletion", "documentId", documentID)
			return &models.DeleteResult{Deleted: false, DocumentID: documentID, ChunksDeleted: 0}, nil
		}
		logger.Info("Deleting legacy document by source", "documentId", documentID, "chunks", len(ids))
	}

	if err := s.store.DeleteByIDs(ctx, ids); err != nil {
		return nil, &StoreError{Op: "delete", Err: err}
	}

	logger.Info("Document deleted", "documentId", documentID, "chunksDeleted", len(ids))
	return &models.DeleteResult{Deleted: true, DocumentID: documentID, ChunksDeleted: len(ids)}, nil
}

// ClearCollection irreversibly drops every document and chunk. The store
// recreates the collection lazily on the next operation.
func (s *DocumentService) ClearCollection(ctx context.Context) error {
	if err := s.store.Drop(ctx); err != nil {
		return &StoreError{Op: "drop", Err: err}
	}
	logger.Info("Collection cleared")
	return nil
}

// GetCollectionStats reports the chunk count straight from the store and
// the document count from the same scan listing uses, so the two numbers
// are always mutually consistent.
func (s *DocumentService) GetCollectionStats(ctx context.Context) (*models.CollectionStats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, &StoreError{Op: "count", Err: err}
	}

	documents, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	return &models.CollectionStats{TotalChunks: count, TotalDocuments: len(documents)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
