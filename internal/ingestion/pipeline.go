// Package ingestion implements the corpus ingestion pipeline. It chunks each
// legal document, embeds the chunks in rate-limited batches, and stores the
// results in the vector store. The pipeline is invoked by the `batas ingest`
// CLI command and the ingest API endpoint.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexph/batasrag-go/internal/chunker"
	"github.com/lexph/batasrag-go/internal/rag"
)

// State tracks a document's progress through the pipeline.
type State string

const (
	// StatePending means the document has not been processed yet.
	StatePending State = "pending"
	// StateChunking means the document text is being split.
	StateChunking State = "chunking"
	// StateEmbedding means the chunks are being embedded.
	StateEmbedding State = "embedding"
	// StateStoring means the embedded chunks are being persisted.
	StateStoring State = "storing"
	// StateDone means the document was fully ingested.
	StateDone State = "done"
	// StateFailed means the document could not be ingested.
	StateFailed State = "failed"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per chunk.
	// Defaults to chunker.DefaultSize if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters repeated between consecutive
	// chunks. Zero means chunker.DefaultOverlap; a negative value disables
	// overlap entirely.
	ChunkOverlap int

	// DocumentDelay is an optional pause between documents, giving embedding
	// providers breathing room on large batches.
	DocumentDelay time.Duration
}

// DocumentResult is the outcome of ingesting one document.
type DocumentResult struct {
	// DocumentID identifies the document.
	DocumentID string `json:"documentId"`
	// State is the final pipeline state, done or failed.
	State State `json:"state"`
	// Chunks is the number of chunks stored. Zero when failed.
	Chunks int `json:"chunks"`
	// Err is the failure cause, nil when done.
	Err error `json:"-"`
	// Error is the failure cause as text, for serialized reports.
	Error string `json:"error,omitempty"`
}

// BatchReport summarizes an ingestion run over a set of documents.
type BatchReport struct {
	// Success is true when every document was ingested.
	Success bool `json:"success"`
	// SuccessCount is the number of documents ingested.
	SuccessCount int `json:"successCount"`
	// FailureCount is the number of documents that failed.
	FailureCount int `json:"failureCount"`
	// Results holds the per-document outcomes in input order.
	Results []DocumentResult `json:"results"`
}

// Pipeline orchestrates the chunk → embed → store flow for a set of
// documents. Documents are processed sequentially; one document failing does
// not stop the rest.
type Pipeline struct {
	// embedder converts chunk text into dense vectors.
	embedder rag.Embedder

	// store persists documents and their embedded chunks.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// log reports per-document progress.
	log *slog.Logger
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config, log *slog.Logger) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = chunker.DefaultOverlap
	}
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Ingest runs the pipeline over all documents and reports per-document
// outcomes. Documents with missing metadata get best-effort values inferred
// from their IDs.
func (p *Pipeline) Ingest(ctx context.Context, docs []rag.Document) BatchReport {
	report := BatchReport{Results: make([]DocumentResult, 0, len(docs))}

	for i, doc := range docs {
		if i > 0 && p.cfg.DocumentDelay > 0 {
			select {
			case <-time.After(p.cfg.DocumentDelay):
			case <-ctx.Done():
			}
		}

		res := p.ingestOne(ctx, doc)
		if res.Err != nil {
			res.Error = res.Err.Error()
			report.FailureCount++
			p.log.Warn("document ingestion failed",
				slog.String("document_id", res.DocumentID),
				slog.String("error", res.Error))
		} else {
			report.SuccessCount++
			p.log.Info("document ingested",
				slog.String("document_id", res.DocumentID),
				slog.Int("chunks", res.Chunks))
		}
		report.Results = append(report.Results, res)
	}

	report.Success = report.FailureCount == 0
	return report
}

// ingestOne runs one document through chunking, embedding, and storage.
func (p *Pipeline) ingestOne(ctx context.Context, doc rag.Document) DocumentResult {
	res := DocumentResult{DocumentID: doc.ID, State: StatePending}

	fail := func(err error) DocumentResult {
		res.State = StateFailed
		res.Chunks = 0
		res.Err = err
		return res
	}

	if strings.TrimSpace(doc.ID) == "" {
		return fail(fmt.Errorf("ingestion: document ID must not be empty: %w", rag.ErrEmptyInput))
	}
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("ingestion: %s: %w", doc.ID, err))
	}

	doc.Metadata = fillMetadata(doc.ID, doc.Metadata)

	res.State = StateChunking
	pieces := chunker.Split(doc.Text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(pieces) == 0 {
		return fail(fmt.Errorf("ingestion: %s produced no valid chunks", doc.ID))
	}

	res.State = StateEmbedding
	vectors, err := p.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return fail(fmt.Errorf("ingestion: embed %s: %w", doc.ID, err))
	}

	res.State = StateStoring
	chunks := make([]rag.Chunk, len(pieces))
	for i, text := range pieces {
		chunks[i] = rag.Chunk{
			ID:         rag.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Text:       text,
			Embedding:  vectors[i],
			Metadata:   doc.Metadata,
		}
	}

	if err := p.store.PutDocument(ctx, doc); err != nil {
		return fail(fmt.Errorf("ingestion: store document %s: %w", doc.ID, err))
	}
	if err := p.store.PutChunks(ctx, doc.ID, chunks); err != nil {
		return fail(fmt.Errorf("ingestion: store chunks %s: %w", doc.ID, err))
	}

	res.State = StateDone
	res.Chunks = len(chunks)
	return res
}
