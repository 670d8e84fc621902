package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lexph/batasrag-go/internal/answer"
	"github.com/lexph/batasrag-go/internal/embedder"
	"github.com/lexph/batasrag-go/internal/ingestion"
	"github.com/lexph/batasrag-go/internal/logging"
	"github.com/lexph/batasrag-go/internal/provider"
	"github.com/lexph/batasrag-go/internal/rag"
	"github.com/lexph/batasrag-go/internal/server"
	"github.com/lexph/batasrag-go/internal/tracing"
)

// NewServeCmd constructs the `batas serve` command, which starts the HTTP
// server exposing the Q&A and ingestion API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var topK int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Batas HTTP server",
		Long: `Start the Batas HTTP server on localhost.

The server exposes a REST API: POST /api/ask answers questions, POST
/api/ingest adds documents to the corpus, DELETE /api/documents/{id}
removes one, and GET /api/stats reports corpus counts. Liveness, readiness,
and Prometheus metrics endpoints are served alongside.

Set BATAS_API_KEY to require a Bearer token on the /api/* routes.

Examples:
  batas serve
  batas serve --port 9090
  QDRANT_HOST=localhost batas serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in; a no-op flush comes back when the
			// keys are absent.
			flush, ok := tracing.Enable(log)
			defer flush()
			if !ok {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			vs, storePinger, closeStore, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeStore()

			retriever, err := rag.NewRetriever(emb, vs, topK, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				log.Warn("answer model unavailable, responses will be degraded",
					slog.Any("error", err))
				chatModel = nil
			}
			assembler := answer.NewAssembler(chatModel, answer.WithLogger(log))

			svc, err := answer.NewService(retriever, assembler, topK, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pipeline, err := ingestion.NewPipeline(emb, vs, &ingestion.Config{
				ChunkSize:    getEnvInt("CHUNK_SIZE", 0),
				ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 0),
				DocumentDelay: time.Duration(getEnvInt("INGEST_DOCUMENT_DELAY_MS", 0)) *
					time.Millisecond,
			}, log)
			if err != nil {
				return fmt.Errorf("serve: failed to create pipeline: %w", err)
			}

			pingers := []server.Pinger{
				storePinger,
				server.NewEmbedderPinger(emb, embedderPingerName()),
			}

			srv, err := server.New(svc, pipeline, vs, prometheus.NewRegistry(), &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("BATAS_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of chunks retrieved per question")

	return cmd
}

// embedderPingerName labels the embedder readiness probe with the resolved
// backend (e.g. "embedder:gemini").
func embedderPingerName() string {
	return "embedder:" + embedder.ResolveBackend()
}
