// Package chroma is a minimal REST client for the Chroma vector database.
// It lazily gets-or-creates a cosine-distance collection and implements the
// vectorstore.Store contract against Chroma's v1 HTTP API.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
)

// Store talks to one named Chroma collection over HTTP.
type Store struct {
	host       string
	collection string
	client     *http.Client

	mu           sync.Mutex
	collectionID string
}

type Config struct {
	Host       string
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		host:       cfg.Host,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// collectionURL resolves the cached collection id, creating the collection
// on first use. Chroma's get_or_create makes double initialization under a
// race harmless.
func (s *Store) collectionURL(ctx context.Context, suffix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collectionID == "" {
		body := map[string]any{
			"name":          s.collection,
			"metadata":      map[string]any{"hnsw:space": "cosine"},
			"get_or_create": true,
		}
		var resp struct {
			ID string `json:"id"`
		}
		if err := s.doJSON(ctx, http.MethodPost, s.host+"/api/v1/collections", body, &resp); err != nil {
			return "", fmt.Errorf("get or create collection %q: %w", s.collection, err)
		}
		s.collectionID = resp.ID
	}

	return fmt.Sprintf("%s/api/v1/collections/%s/%s", s.host, s.collectionID, suffix), nil
}

func (s *Store) Upsert(ctx context.Context, ids []string, vectors [][]float32, texts []string, metas []vectorstore.ChunkMeta) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metas) {
		return fmt.Errorf("upsert batch length mismatch: %d ids, %d vectors, %d texts, %d metadatas",
			len(ids), len(vectors), len(texts), len(metas))
	}
	if len(ids) == 0 {
		return nil
	}

	url, err := s.collectionURL(ctx, "add")
	if err != nil {
		return err
	}

	body := map[string]any{
		"ids":        ids,
		"embeddings": vectors,
		"documents":  texts,
		"metadatas":  metas,
	}
	return s.doJSON(ctx, http.MethodPost, url, body, nil)
}

func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Neighbor, error) {
	url, err := s.collectionURL(ctx, "query")
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"query_embeddings": [][]float32{vector},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}

	// Chroma nests results one level per query embedding.
	var resp struct {
		Documents [][]string                `json:"documents"`
		Metadatas [][]vectorstore.ChunkMeta `json:"metadatas"`
		Distances [][]float64               `json:"distances"`
	}
	if err := s.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return nil, nil
	}

	neighbors := make([]vectorstore.Neighbor, 0, len(resp.Documents[0]))
	for i, doc := range resp.Documents[0] {
		n := vectorstore.Neighbor{Text: doc}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			n.Meta = resp.Metadatas[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			n.Distance = resp.Distances[0][i]
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, nil
}

func (s *Store) GetByFilter(ctx context.Context, field, value string) ([]string, []vectorstore.ChunkMeta, error) {
	url, err := s.collectionURL(ctx, "get")
	if err != nil {
		return nil, nil, err
	}

	body := map[string]any{
		"include": []string{"metadatas"},
	}
	if field != "" {
		body["where"] = map[string]string{field: value}
	}

	var resp struct {
		IDs       []string                `json:"ids"`
		Metadatas []vectorstore.ChunkMeta `json:"metadatas"`
	}
	if err := s.doJSON(ctx, http.MethodPost, url, body, &resp); err != nil {
		return nil, nil, err
	}
	return resp.IDs, resp.Metadatas, nil
}

func (s *Store) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	url, err := s.collectionURL(ctx, "delete")
	if err != nil {
		return err
	}
	return s.doJSON(ctx, http.MethodPost, url, map[string]any{"ids": ids}, nil)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	url, err := s.collectionURL(ctx, "count")
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.doJSON(ctx, http.MethodGet, url, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Drop deletes the collection by name and forgets the cached id so the next
// operation recreates it empty.
func (s *Store) Drop(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v1/collections/%s", s.host, s.collection)
	if err := s.doJSON(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.collectionID = ""
	s.mu.Unlock()
	return nil
}

func (s *Store) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("chroma %s %s: %s: %s", method, url, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
