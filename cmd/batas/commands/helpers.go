package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/lexph/batasrag-go/internal/embedder"
	"github.com/lexph/batasrag-go/internal/rag"
	"github.com/lexph/batasrag-go/internal/server"
	"github.com/lexph/batasrag-go/internal/store"
)

// buildEmbedder validates the embedding environment and constructs the
// batching embedder client from it.
func buildEmbedder(log *slog.Logger) (rag.Embedder, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised",
		slog.String("backend", embedder.ResolveBackend()),
		slog.Int("dimensions", emb.Dimensions()))
	return emb, nil
}

// buildStore opens the vector store selected by the environment. When
// QDRANT_HOST is set the Qdrant backend is used; otherwise the embedded
// SQLite store at BATAS_DB (default ~/.batas/batas.db). The returned close
// function must be called when the store is no longer needed, and the
// returned Pinger probes the chosen backend for /api/ready.
func buildStore(ctx context.Context, log *slog.Logger) (rag.VectorStore, server.Pinger, func(), error) {
	if host := os.Getenv("QDRANT_HOST"); host != "" {
		dims := embedder.DefaultDimensions(embedder.ResolveBackend())
		qs, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:       host,
			Port:       getEnvInt("QDRANT_PORT", 6334),
			Collection: getEnvOrDefault("QDRANT_COLLECTION", "batas-chunks"),
			VectorSize: uint64(dims), //nolint:gosec // dimensions are bounded
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", host, err)
		}
		log.Info("qdrant store ready",
			slog.String("host", host),
			slog.String("collection", getEnvOrDefault("QDRANT_COLLECTION", "batas-chunks")))
		return qs, server.NewQdrantPinger(qs.Client()), func() { _ = qs.Close() }, nil
	}

	dbPath := os.Getenv("BATAS_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
	}
	ss, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store at %s: %w", dbPath, err)
	}
	log.Info("sqlite store ready", slog.String("path", dbPath))
	return ss, server.NewStorePinger(ss), func() { _ = ss.Close() }, nil
}

// getEnvOrDefault returns the value of the environment variable or the
// fallback when it is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the environment variable or the
// fallback when it is unset or not a valid integer.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
