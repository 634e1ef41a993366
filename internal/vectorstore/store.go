// Package vectorstore defines the contract the RAG pipeline has with a
// vector database and the chunk metadata schema persisted alongside each
// embedding.
package vectorstore

import "context"

// ChunkMeta is the metadata record stored with every chunk vector.
// DocumentID groups all chunks of one uploaded document. Legacy records
// ingested before DocumentID existed carry only Source, which then acts
// as the document key.
type ChunkMeta struct {
	DocumentID string `json:"documentId,omitempty"`
	ChunkIndex int    `json:"chunkIndex"`
	ChunkTotal int    `json:"chunkTotal"`
	Source     string `json:"source,omitempty"`
	Filetype   string `json:"filetype,omitempty"`
	IngestedAt string `json:"ingestedAt,omitempty"`
	UploadedAt string `json:"uploadedAt,omitempty"`
}

// Key resolves the document grouping key, preferring DocumentID and
// falling back to Source for legacy records.
func (m ChunkMeta) Key() string {
	if m.DocumentID != "" {
		return m.DocumentID
	}
	return m.Source
}

// Neighbor is one ranked query result.
type Neighbor struct {
	Text     string
	Meta     ChunkMeta
	Distance float64
}

// Store is the vector database contract. Distances are cosine distances
// in [0, 2], 0 meaning identical direction.
type Store interface {
	// Upsert writes one batch of chunk records. All four slices must
	// have equal length; the write succeeds or fails as a unit.
	Upsert(ctx context.Context, ids []string, vectors [][]float32, texts []string, metas []ChunkMeta) error

	// Query returns up to k nearest neighbors of vector, ascending by
	// distance. Fewer than k stored vectors is not an error.
	Query(ctx context.Context, vector []float32, k int) ([]Neighbor, error)

	// GetByFilter returns the ids and metadata of every record whose
	// metadata field equals value. An empty field returns all records.
	GetByFilter(ctx context.Context, field, value string) ([]string, []ChunkMeta, error)

	// DeleteByIDs removes the records with the given ids.
	DeleteByIDs(ctx context.Context, ids []string) error

	// Count returns the number of stored chunk records.
	Count(ctx context.Context) (int, error)

	// Drop destroys the whole collection. The next operation recreates
	// it empty.
	Drop(ctx context.Context) error
}
