package rag

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// scrollPageSize bounds a single stats scroll. The corpus this system targets
// is low thousands of chunks, so one page covers it.
const scrollPageSize = 10000

// qdrantDeleteBatch is the maximum number of points removed per delete call
// during a cascade, mirroring the bounded-batch rule of the SQLite store.
const qdrantDeleteBatch = 500

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this
	// collection (768 for the default Gemini embedding model).
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance. Qdrant
// provides a native nearest-neighbor primitive over cosine distance, so
// Search delegates ranking to the backend; scores returned by Qdrant for a
// cosine collection are already similarities (no 1-distance conversion).
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection
// exists (creating it if necessary), and returns a ready-to-use VectorStore.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "batas-chunks"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// Client exposes the underlying gRPC client for readiness probes.
func (s *QdrantStore) Client() *qdrant.Client { return s.client }

// ensureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// PutDocument validates the document. Qdrant stores no separate document
// record — document metadata lives denormalized on every chunk payload, and
// the document set is derived from chunk payloads during Stats.
func (s *QdrantStore) PutDocument(_ context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("qdrant: document ID must not be empty")
	}
	return nil
}

// PutChunks upserts the chunks of a document. Upserts are idempotent: the
// point ID is derived deterministically from the chunk ID, so re-ingesting a
// document overwrites prior content at the same address.
func (s *QdrantStore) PutChunks(ctx context.Context, documentID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(c.ID)),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":     c.ID,
				"document_id":  documentID,
				"chunk_index":  int64(c.Index),
				"content":      c.Text,
				"category":     c.Metadata.Category,
				"year":         int64(c.Metadata.Year),
				"jurisdiction": c.Metadata.Jurisdiction,
				"status":       string(statusOrActive(c.Metadata.Status)),
			}),
		})
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant: upsert failed for document %s: %w", documentID, err)
	}

	return nil
}

// GetChunk fetches a chunk by its canonical ID via the deterministic point ID.
func (s *QdrantStore) GetChunk(ctx context.Context, chunkID string) (Chunk, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.cfg.Collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(pointID(chunkID))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return Chunk{}, fmt.Errorf("qdrant: get chunk %s: %w", chunkID, err)
	}
	if len(points) == 0 {
		return Chunk{}, fmt.Errorf("qdrant: chunk %s: %w", chunkID, ErrNotFound)
	}

	c := chunkFromPayload(points[0].Payload)
	return c, nil
}

// DeleteDocument removes every chunk belonging to the document, in bounded
// batches selected by a payload filter. If the document has no chunks the
// error wraps ErrNotFound. A failed batch is surfaced immediately — orphaned
// chunks are never silently left behind.
func (s *QdrantStore) DeleteDocument(ctx context.Context, documentID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentID)},
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Filter:         filter,
	})
	if err != nil {
		return fmt.Errorf("qdrant: counting chunks for %s: %w", documentID, err)
	}
	if count == 0 {
		return fmt.Errorf("qdrant: document %s: %w", documentID, ErrNotFound)
	}

	// Delete in bounded batches: scroll a page of point IDs, delete them,
	// repeat until the filter matches nothing.
	for {
		limit := uint32(qdrantDeleteBatch)
		page, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.cfg.Collection,
			Filter:         filter,
			Limit:          &limit,
		})
		if err != nil {
			return fmt.Errorf("qdrant: scrolling chunks for %s: %w", documentID, err)
		}
		if len(page) == 0 {
			return nil
		}

		ids := make([]*qdrant.PointId, 0, len(page))
		for _, p := range page {
			ids = append(ids, p.Id)
		}
		if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.cfg.Collection,
			Points:         qdrant.NewPointsSelector(ids...),
		}); err != nil {
			return fmt.Errorf("qdrant: deleting chunks for %s (partial deletion, %d remain): %w",
				documentID, len(page), err)
		}
	}
}

// Search performs a native cosine similarity search and returns the top-k
// results, best match first. A zero-length query vector is a defined no-op.
func (s *QdrantStore) Search(ctx context.Context, queryVector []float32, k int) ([]SearchResult, error) {
	if len(queryVector) == 0 {
		return nil, nil
	}
	if k <= 0 {
		return nil, nil
	}

	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		c := chunkFromPayload(p.Payload)
		results = append(results, SearchResult{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Score:      p.Score,
			Metadata:   c.Metadata,
		})
	}

	return results, nil
}

// Stats derives document and chunk counts by scanning chunk payloads.
// A full scroll is acceptable at this corpus scale (low thousands of chunks).
func (s *QdrantStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[string]int)}

	limit := uint32(scrollPageSize)
	page, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.cfg.Collection,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayloadInclude("document_id", "status"),
	})
	if err != nil {
		return Stats{}, fmt.Errorf("qdrant: stats scroll failed: %w", err)
	}

	docStatus := make(map[string]string)
	for _, p := range page {
		stats.Chunks++
		if p.Payload == nil {
			continue
		}
		docID := p.Payload["document_id"].GetStringValue()
		if docID == "" {
			continue
		}
		docStatus[docID] = p.Payload["status"].GetStringValue()
	}

	stats.Documents = len(docStatus)
	for _, status := range docStatus {
		if status == "" {
			status = string(StatusActive)
		}
		stats.ByStatus[status]++
	}

	return stats, nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// chunkFromPayload reconstructs a Chunk from a Qdrant point payload.
func chunkFromPayload(payload map[string]*qdrant.Value) Chunk {
	var c Chunk
	if payload == nil {
		return c
	}
	c.ID = payload["chunk_id"].GetStringValue()
	c.DocumentID = payload["document_id"].GetStringValue()
	c.Index = int(payload["chunk_index"].GetIntegerValue())
	c.Text = payload["content"].GetStringValue()
	c.Metadata = Metadata{
		Category:     payload["category"].GetStringValue(),
		Year:         int(payload["year"].GetIntegerValue()),
		Jurisdiction: payload["jurisdiction"].GetStringValue(),
		Status:       Status(payload["status"].GetStringValue()),
	}
	return c
}

// pointID derives a deterministic UUID-formatted point ID from a chunk ID so
// that re-ingestion addresses the same Qdrant point.
func pointID(chunkID string) string {
	sum := sha256.Sum256([]byte(chunkID))
	b := sum[:16]
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// statusOrActive returns the given status, defaulting to StatusActive.
func statusOrActive(s Status) Status {
	if s == "" {
		return StatusActive
	}
	return s
}
