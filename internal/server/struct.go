package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexph/batasrag-go/internal/answer"
	"github.com/lexph/batasrag-go/internal/ingestion"
	"github.com/lexph/batasrag-go/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	// Must be long enough for ingestion of a full document batch.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
}

// asker answers one question end to end. *answer.Service satisfies it; tests
// inject a fake.
type asker interface {
	// Ask answers a question, reporting failures in-band.
	Ask(ctx context.Context, question string) answer.Result
}

// ingestor runs the ingestion pipeline over a batch of documents.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type ingestor interface {
	// Ingest processes the documents and reports per-document outcomes.
	Ingest(ctx context.Context, docs []rag.Document) ingestion.BatchReport
}

// corpus is the subset of the vector store the server needs directly.
type corpus interface {
	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, documentID string) error
	// Stats returns corpus-level counts.
	Stats(ctx context.Context) (rag.Stats, error)
}

// Server is the HTTP server that exposes the legal Q&A API.
type Server struct {
	// asker answers /api/ask requests.
	asker asker
	// ingestor handles /api/ingest requests.
	ingestor ingestor
	// store backs /api/stats and document deletion.
	store corpus
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
}

// ingestDocument is one document in an ingest request. Metadata fields are
// optional; missing values are inferred from the document ID.
type ingestDocument struct {
	// ID is the stable document identifier (e.g. "ra-4136").
	ID string `json:"id"`
	// Text is the full document text.
	Text string `json:"text"`
	// Metadata optionally overrides the inferred classification.
	Metadata rag.Metadata `json:"metadata,omitempty"`
}

// ingestRequest is the JSON body for POST /api/ingest.
type ingestRequest struct {
	// Documents is the batch to ingest.
	Documents []ingestDocument `json:"documents"`
}
