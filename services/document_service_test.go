package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
	"github.com/ehisj/CustomerAIAgent/internal/vectorstore/memory"
)

// stubEmbedder returns fixed vectors for known texts and a default for
// everything else, or fails as a unit when told to.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("embedding provider down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0}
		}
	}
	return out, nil
}

func (s *stubEmbedder) Close() error { return nil }

func newTestService(store vectorstore.Store) *DocumentService {
	return NewDocumentService(store, &stubEmbedder{}, 50, 10)
}

func TestIngestDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)

	text := strings.Repeat("The product ships in five business days. ", 10)
	result, err := svc.IngestDocument(ctx, text, IngestMeta{Source: "shipping.txt", Filetype: "txt"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.DocumentID == "" {
		t.Error("expected a generated documentId")
	}
	if result.ChunksAdded < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", result.ChunksAdded)
	}

	stats, err := svc.GetCollectionStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalChunks != result.ChunksAdded {
		t.Errorf("totalChunks = %d, want %d", stats.TotalChunks, result.ChunksAdded)
	}
	if stats.TotalDocuments != 1 {
		t.Errorf("totalDocuments = %d, want 1", stats.TotalDocuments)
	}

	deleted, err := svc.DeleteDocument(ctx, result.DocumentID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted.Deleted || deleted.ChunksDeleted != result.ChunksAdded {
		t.Errorf("delete = %+v, want all %d chunks deleted", deleted, result.ChunksAdded)
	}

	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty listing after delete, got %d documents", len(docs))
	}
}

func TestIngestPreassignedDocumentID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())

	result, err := svc.IngestDocument(ctx, "refunds are processed within two days", IngestMeta{DocumentID: "doc-42"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.DocumentID != "doc-42" {
		t.Errorf("documentId = %q, want pre-assigned doc-42", result.DocumentID)
	}
}

func TestIngestEmptyInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())

	for _, text := range []string{"", "   \n\t  "} {
		if _, err := svc.IngestDocument(ctx, text, IngestMeta{}); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("IngestDocument(%q) error = %v, want ErrEmptyInput", text, err)
		}
	}
}

func TestIngestEmbeddingFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewDocumentService(store, &stubEmbedder{fail: true}, 50, 10)

	_, err := svc.IngestDocument(ctx, "some support text", IngestMeta{})
	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}

	n, _ := store.Count(ctx)
	if n != 0 {
		t.Errorf("expected no chunks persisted after embedding failure, got %d", n)
	}
}

func TestQueryOrdering(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	err := store.Upsert(ctx,
		[]string{"near", "far", "mid"},
		[][]float32{{1, 0}, {0, 1}, {0.8, 0.6}},
		[]string{"nearest chunk", "farthest chunk", "middle chunk"},
		make([]vectorstore.ChunkMeta, 3),
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewDocumentService(store, &stubEmbedder{vectors: map[string][]float32{
		"how fast is shipping": {1, 0},
	}}, 500, 50)

	got, err := svc.QueryRelevant(ctx, "how fast is shipping", 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []string{"nearest chunk", "middle chunk", "farthest chunk"}
	for i, text := range want {
		if got[i].Text != text {
			t.Errorf("result %d = %q, want %q", i, got[i].Text, text)
		}
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())

	got, err := svc.QueryRelevant(ctx, "anything", 5)
	if err != nil {
		t.Fatalf("query on empty collection should not error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestLegacyFallbackDeletion(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	// A record from before documentId existed: only source set.
	err := store.Upsert(ctx,
		[]string{"legacy-1"},
		[][]float32{{1, 0}},
		[]string{"old chunk"},
		[]vectorstore.ChunkMeta{{Source: "legacy.txt", ChunkIndex: 0, ChunkTotal: 1}},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newTestService(store)
	result, err := svc.DeleteDocument(ctx, "legacy.txt")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !result.Deleted || result.ChunksDeleted != 1 {
		t.Errorf("delete = %+v, want legacy chunk deleted", result)
	}
}

func TestDeleteDocumentIDTakesPriority(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	// "shared" is simultaneously a documentId and a legacy source value.
	err := store.Upsert(ctx,
		[]string{"by-id", "by-source"},
		[][]float32{{1, 0}, {0, 1}},
		[]string{"id chunk", "source chunk"},
		[]vectorstore.ChunkMeta{
			{DocumentID: "shared"},
			{Source: "shared"},
		},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newTestService(store)
	result, err := svc.DeleteDocument(ctx, "shared")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.ChunksDeleted != 1 {
		t.Fatalf("expected only the documentId match deleted, got %d", result.ChunksDeleted)
	}

	ids, _, _ := store.GetByFilter(ctx, "", "")
	if len(ids) != 1 || ids[0] != "by-source" {
		t.Errorf("expected the legacy record to survive, remaining ids %v", ids)
	}
}

func TestDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())

	result, err := svc.DeleteDocument(ctx, "missing-id")
	if err != nil {
		t.Fatalf("not-found delete must not error, got %v", err)
	}
	if result.Deleted || result.ChunksDeleted != 0 {
		t.Errorf("delete = %+v, want deleted=false chunksDeleted=0", result)
	}
}

func TestListDocumentsSorting(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	err := store.Upsert(ctx,
		[]string{"a1", "b1", "c1", "c2"},
		[][]float32{{1, 0}, {1, 0}, {1, 0}, {1, 0}},
		[]string{"a", "b", "c", "c"},
		[]vectorstore.ChunkMeta{
			{DocumentID: "doc-old", Source: "old.txt", IngestedAt: "2024-01-01T00:00:00Z"},
			{DocumentID: "doc-new", Source: "new.txt", IngestedAt: "2025-06-01T00:00:00Z"},
			{DocumentID: "doc-undated", Source: "undated.txt"},
			{DocumentID: "doc-undated", Source: "undated.txt"},
		},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newTestService(store)
	docs, err := svc.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 grouped documents, got %d", len(docs))
	}

	if docs[0].DocumentID != "doc-new" || docs[1].DocumentID != "doc-old" {
		t.Errorf("expected newest first, got %q then %q", docs[0].DocumentID, docs[1].DocumentID)
	}
	if docs[2].DocumentID != "doc-undated" {
		t.Errorf("expected undated document last, got %q", docs[2].DocumentID)
	}
	if docs[2].ChunkCount != 2 {
		t.Errorf("undated document chunkCount = %d, want 2", docs[2].ChunkCount)
	}
}

func TestClearCollection(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)

	if _, err := svc.IngestDocument(ctx, "text to be cleared", IngestMeta{Source: "a.txt"}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := svc.ClearCollection(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	stats, err := svc.GetCollectionStats(ctx)
	if err != nil {
		t.Fatalf("stats after clear: %v", err)
	}
	if stats.TotalChunks != 0 || stats.TotalDocuments != 0 {
		t.Errorf("stats = %+v, want empty collection", stats)
	}
}
