package memory

import (
	"context"
	"math"
	"testing"

	"github.com/ehisj/CustomerAIAgent/internal/vectorstore"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.Upsert(context.Background(),
		[]string{"a", "b", "c"},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
		[]string{"chunk a", "chunk b", "chunk c"},
		[]vectorstore.ChunkMeta{
			{DocumentID: "doc-1", ChunkIndex: 0, ChunkTotal: 2, Source: "a.txt"},
			{DocumentID: "doc-2", ChunkIndex: 0, ChunkTotal: 1, Source: "b.txt"},
			{DocumentID: "doc-1", ChunkIndex: 1, ChunkTotal: 2, Source: "a.txt"},
		},
	)
	if err != nil {
		t.Fatalf("seed upsert: %v", err)
	}
}

func TestQueryOrdersByDistance(t *testing.T) {
	s := New()
	seed(t, s)

	got, err := s.Query(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(got))
	}

	if got[0].Text != "chunk a" || got[1].Text != "chunk c" || got[2].Text != "chunk b" {
		t.Errorf("wrong order: %q, %q, %q", got[0].Text, got[1].Text, got[2].Text)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("distances not ascending at %d: %f < %f", i, got[i].Distance, got[i-1].Distance)
		}
	}
	if got[0].Distance > 1e-9 {
		t.Errorf("identical vector should have distance ~0, got %f", got[0].Distance)
	}
}

func TestQueryFewerThanK(t *testing.T) {
	s := New()
	seed(t, s)

	got, err := s.Query(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected all 3 stored vectors, got %d", len(got))
	}

	empty := New()
	got, err = empty.Query(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("query on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no neighbors from empty store, got %d", len(got))
	}
}

func TestGetByFilter(t *testing.T) {
	s := New()
	seed(t, s)

	ids, metas, err := s.GetByFilter(context.Background(), "documentId", "doc-1")
	if err != nil {
		t.Fatalf("get by filter: %v", err)
	}
	if len(ids) != 2 || len(metas) != 2 {
		t.Fatalf("expected 2 doc-1 chunks, got %d ids", len(ids))
	}

	ids, _, err = s.GetByFilter(context.Background(), "source", "b.txt")
	if err != nil {
		t.Fatalf("get by source: %v", err)
	}
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("expected [b], got %v", ids)
	}

	ids, _, err = s.GetByFilter(context.Background(), "", "")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("empty field should return all records, got %d", len(ids))
	}
}

func TestDeleteByIDsAndCount(t *testing.T) {
	s := New()
	seed(t, s)

	if err := s.DeleteByIDs(context.Background(), []string{"a", "c"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 record after delete, got %d", n)
	}

	ids, _, _ := s.GetByFilter(context.Background(), "", "")
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("expected only b to remain, got %v", ids)
	}
}

func TestDropResetsStore(t *testing.T) {
	s := New()
	seed(t, s)

	if err := s.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}
	n, _ := s.Count(context.Background())
	if n != 0 {
		t.Errorf("expected empty store after drop, got %d", n)
	}

	// Store is usable again after a drop.
	seed(t, s)
	n, _ = s.Count(context.Background())
	if n != 3 {
		t.Errorf("expected 3 records after re-seed, got %d", n)
	}
}

func TestUpsertLengthMismatch(t *testing.T) {
	s := New()
	err := s.Upsert(context.Background(),
		[]string{"a"},
		[][]float32{{1}, {2}},
		[]string{"one"},
		[]vectorstore.ChunkMeta{{}},
	)
	if err == nil {
		t.Fatal("expected error for mismatched batch lengths")
	}
}

func TestCosineDistance(t *testing.T) {
	cases := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 0},
		{[]float32{1, 0}, []float32{0, 1}, 1},
		{[]float32{1, 0}, []float32{-1, 0}, 2},
		{[]float32{1, 0}, []float32{0, 0}, 2},
		{[]float32{1, 0}, []float32{1}, 2},
	}
	for _, c := range cases {
		if got := cosineDistance(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("cosineDistance(%v, %v) = %f, want %f", c.a, c.b, got, c.want)
		}
	}
}
