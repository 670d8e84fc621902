package server

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// pingable is anything exposing a Ping method. *store.SQLiteStore satisfies it.
type pingable interface {
	Ping(ctx context.Context) error
}

// StorePinger probes the SQLite corpus database. It satisfies the Pinger
// interface and is used by GET /api/ready.
type StorePinger struct {
	// store is the database handle to probe.
	store pingable
}

// NewStorePinger constructs a StorePinger for the given store.
func NewStorePinger(store pingable) *StorePinger {
	return &StorePinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *StorePinger) Name() string { return "sqlite" }

// Ping checks the database connection.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// embedOne is the single-text subset of the embedder used for probing.
type embedOne interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderPinger probes the embedding backend with a minimal one-word embed
// request. Embedding calls are cheap compared to chat generation, so this is
// an acceptable readiness cost.
type EmbedderPinger struct {
	// embedder is the embedding client to probe.
	embedder embedOne
	// name identifies the backend in readiness responses (e.g. "gemini").
	name string
}

// NewEmbedderPinger constructs an EmbedderPinger for the given embedder and
// backend name.
func NewEmbedderPinger(e embedOne, name string) *EmbedderPinger {
	return &EmbedderPinger{embedder: e, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *EmbedderPinger) Name() string { return p.name }

// Ping sends a one-word embed request to the backend.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	vec, err := p.embedder.Embed(ctx, "ping")
	if err != nil {
		return fmt.Errorf("embed failed: %w", err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("embed returned empty vector")
	}
	return nil
}
