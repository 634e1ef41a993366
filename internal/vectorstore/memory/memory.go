// Package memory is an in-process vectorstore.Store backed by a map, used
// by tests and local development without a running Chroma instance.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
)

type record struct {
	id     string
	vector []float32
	text   string
	meta   vectorstore.ChunkMeta
}

// Store keeps all records in memory and ranks queries by cosine distance.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
	order   []string
}

func New() *Store {
	return &Store{records: make(map[string]record)}
}

func (s *Store) Upsert(ctx context.Context, ids []string, vectors [][]float32, texts []string, metas []vectorstore.ChunkMeta) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metas) {
		return fmt.Errorf("upsert batch length mismatch: %d ids, %d vectors, %d texts, %d metadatas",
			len(ids), len(vectors), len(texts), len(metas))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		if _, exists := s.records[id]; !exists {
			s.order = append(s.order, id)
		}
		s.records[id] = record{id: id, vector: vectors[i], text: texts[i], meta: metas[i]}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	neighbors := make([]vectorstore.Neighbor, 0, len(s.records))
	for _, id := range s.order {
		r := s.records[id]
		neighbors = append(neighbors, vectorstore.Neighbor{
			Text:     r.text,
			Meta:     r.meta,
			Distance: cosineDistance(vector, r.vector),
		})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if k > 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func (s *Store) GetByFilter(ctx context.Context, field, value string) ([]string, []vectorstore.ChunkMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	var metas []vectorstore.ChunkMeta
	for _, id := range s.order {
		r := s.records[id]
		if field != "" && fieldValue(r.meta, field) != value {
			continue
		}
		ids = append(ids, id)
		metas = append(metas, r.meta)
	}
	return ids, metas, nil
}

func (s *Store) DeleteByIDs(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
		delete(s.records, id)
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *Store) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]record)
	s.order = nil
	return nil
}

func fieldValue(m vectorstore.ChunkMeta, field string) string {
	switch field {
	case "documentId":
		return m.DocumentID
	case "source":
		return m.Source
	case "filetype":
		return m.Filetype
	default:
		return ""
	}
}

// cosineDistance is 1 - cosine similarity, in [0, 2]. Mismatched or
// zero-magnitude vectors get the maximally distant value.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
