package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lexph/batasrag-go/internal/rag"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// putTestDocument ingests a small document with n embedded chunks.
func putTestDocument(t *testing.T, s *SQLiteStore, id string, n int, embed func(i int) []float32) {
	t.Helper()
	ctx := context.Background()

	doc := rag.Document{
		ID: id,
		Metadata: rag.Metadata{
			Category:     "statute",
			Year:         2013,
			Jurisdiction: "PH",
			Status:       rag.StatusActive,
		},
	}
	if err := s.PutDocument(ctx, doc); err != nil {
		t.Fatalf("put document %s: %v", id, err)
	}

	chunks := make([]rag.Chunk, n)
	for i := range chunks {
		chunks[i] = rag.Chunk{
			ID:         rag.ChunkID(id, i),
			DocumentID: id,
			Index:      i,
			Text:       fmt.Sprintf("section %d of %s", i, id),
			Embedding:  embed(i),
			Metadata:   doc.Metadata,
		}
	}
	if err := s.PutChunks(ctx, id, chunks); err != nil {
		t.Fatalf("put chunks %s: %v", id, err)
	}
}

func Test_Store_IngestAndGetChunk(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	putTestDocument(t, s, "ra-10586", 3, func(i int) []float32 {
		return []float32{float32(i), 1, 0}
	})

	c, err := s.GetChunk(ctx, rag.ChunkID("ra-10586", 1))
	if err != nil {
		t.Fatalf("get chunk: %v", err)
	}
	if c.DocumentID != "ra-10586" || c.Index != 1 {
		t.Errorf("chunk identity: got %s/%d", c.DocumentID, c.Index)
	}
	if c.Text != "section 1 of ra-10586" {
		t.Errorf("chunk text: got %q", c.Text)
	}
	if len(c.Embedding) != 3 || c.Embedding[0] != 1 {
		t.Errorf("embedding round-trip: got %v", c.Embedding)
	}
	if c.Metadata.Category != "statute" || c.Metadata.Status != rag.StatusActive {
		t.Errorf("metadata: got %+v", c.Metadata)
	}
}

func Test_Store_GetChunkMissing(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	if _, err := s.GetChunk(context.Background(), "nope_chunk_0"); !errors.Is(err, rag.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func Test_Store_ReingestReplacesChunks(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	putTestDocument(t, s, "mc-2023-001", 5, func(int) []float32 { return []float32{1, 0} })
	putTestDocument(t, s, "mc-2023-001", 2, func(int) []float32 { return []float32{0, 1} })

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Documents != 1 {
		t.Errorf("documents = %d, want 1", st.Documents)
	}
	if st.Chunks != 2 {
		t.Errorf("chunks = %d, want 2 after re-ingest", st.Chunks)
	}
}

func Test_Store_DeleteDocument(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	putTestDocument(t, s, "ao-2011-01", 4, func(int) []float32 { return []float32{1} })

	if err := s.DeleteDocument(ctx, "ao-2011-01"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Documents != 0 || st.Chunks != 0 {
		t.Errorf("after delete: %d documents, %d chunks", st.Documents, st.Chunks)
	}

	if _, err := s.GetChunk(ctx, rag.ChunkID("ao-2011-01", 0)); !errors.Is(err, rag.ErrNotFound) {
		t.Errorf("deleted chunk lookup: want ErrNotFound, got %v", err)
	}

	if err := s.DeleteDocument(ctx, "ao-2011-01"); !errors.Is(err, rag.ErrNotFound) {
		t.Errorf("second delete: want ErrNotFound, got %v", err)
	}
}

func Test_Store_DeleteLargeDocument(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	// More chunks than one delete batch, so the batching loop runs twice.
	putTestDocument(t, s, "irr-ra-4136", deleteBatchSize+50, func(int) []float32 { return []float32{1} })

	if err := s.DeleteDocument(ctx, "irr-ra-4136"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Chunks != 0 {
		t.Errorf("chunks remaining after delete: %d", st.Chunks)
	}
}

func Test_Store_SearchOrdersByScore(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	// Three chunks pointing increasingly away from the query direction.
	putTestDocument(t, s, "ra-4136", 3, func(i int) []float32 {
		switch i {
		case 0:
			return []float32{1, 0}
		case 1:
			return []float32{1, 1}
		default:
			return []float32{0, 1}
		}
	})

	results, err := s.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ChunkID != rag.ChunkID("ra-4136", 0) {
		t.Errorf("best match = %s, want chunk 0", results[0].ChunkID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %v then %v", results[0].Score, results[1].Score)
	}
	if results[0].DocumentID != "ra-4136" || results[0].Metadata.Jurisdiction != "PH" {
		t.Errorf("result carries wrong identity: %+v", results[0])
	}
}

func Test_Store_SearchDegenerateQueries(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	putTestDocument(t, s, "do-2017-011", 1, func(int) []float32 { return []float32{1, 0} })

	results, err := s.Search(ctx, nil, 5)
	if err != nil {
		t.Fatalf("search nil vector: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("nil vector: got %d results, want 0", len(results))
	}

	results, err = s.Search(ctx, []float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("search k=0: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("k=0: got %d results, want 0", len(results))
	}
}

func Test_Store_StatsByStatus(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	putTestDocument(t, s, "ra-10930", 1, func(int) []float32 { return []float32{1} })

	archived := rag.Document{
		ID: "bp-344",
		Metadata: rag.Metadata{
			Category: "statute", Year: 1983, Jurisdiction: "PH", Status: rag.StatusArchived,
		},
	}
	if err := s.PutDocument(ctx, archived); err != nil {
		t.Fatalf("put archived: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Documents != 2 {
		t.Errorf("documents = %d, want 2", st.Documents)
	}
	if st.ByStatus["active"] != 1 || st.ByStatus["archived"] != 1 {
		t.Errorf("byStatus = %v", st.ByStatus)
	}
}

func Test_Store_VectorCodecRoundTrip(t *testing.T) {
	t.Parallel()

	in := []float32{0, 1, -1, 0.5, 3.14159, -2.71828}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d: %v != %v", i, in[i], out[i])
		}
	}
}
