// Package tracing wires optional Langfuse tracing into the eino callback
// chain. Tracing is enabled only when the Langfuse key pair is present in the
// environment, so local and CI runs stay untraced without extra config.
package tracing

import (
	"log/slog"
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// Enable registers the Langfuse callback handler globally when
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY are set. It returns a flush
// function that must be called before process exit so buffered traces are
// sent; when tracing is disabled the flush function is a no-op.
func Enable(log *slog.Logger) (flush func(), enabled bool) {
	host := os.Getenv("LANGFUSE_HOST")
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")

	if publicKey == "" || secretKey == "" {
		return func() {}, false
	}
	if host == "" {
		host = "http://localhost:3000"
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
	})
	callbacks.AppendGlobalHandlers(handler)

	log.Info("langfuse tracing enabled", slog.String("host", host))
	return flusher, true
}
