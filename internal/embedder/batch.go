package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/lexph/batasrag-go/internal/rag"
)

const (
	// batchWindow is the number of texts embedded concurrently per window.
	batchWindow = 5
	// maxTextLen is the character limit per text; longer inputs are truncated
	// before being sent upstream.
	maxTextLen = 8192
)

// Backend is a provider-specific embedding transport. Implementations take a
// batch of texts and return one vector per text, in order.
type Backend interface {
	// Embed converts texts into embeddings. The returned slice is parallel to
	// the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name returns the backend label used in logs and readiness responses.
	Name() string
}

// Client wraps a Backend with batching, truncation, rate limiting and
// dimension checks. It implements rag.Embedder.
type Client struct {
	backend    Backend
	dimensions int
	limiter    *rate.Limiter
	log        *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithRateLimiter sets the limiter that paces batch windows. A nil limiter
// disables pacing.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithClientLogger sets the logger. Defaults to slog.Default.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient constructs a Client over the given backend. dimensions is the
// expected vector width; vectors of a different width are logged as warnings
// but still returned, since some models serve variable widths.
func NewClient(backend Backend, dimensions int, opts ...ClientOption) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("embedder: backend must not be nil")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("embedder: dimensions must be positive, got %d", dimensions)
	}
	c := &Client{
		backend:    backend,
		dimensions: dimensions,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dimensions returns the expected vector width.
func (c *Client) Dimensions() int { return c.dimensions }

// Name returns the underlying backend's label.
func (c *Client) Name() string { return c.backend.Name() }

// Embed converts a single text into its embedding. Empty or whitespace-only
// input is rejected with rag.ErrEmptyInput. Texts longer than maxTextLen
// characters are truncated before being sent upstream.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedder: %w", rag.ErrEmptyInput)
	}
	return c.embedOne(ctx, text)
}

// embedOne sends a single prepared text upstream and validates the result.
func (c *Client) embedOne(ctx context.Context, text string) ([]float32, error) {
	text = truncate(text)
	vecs, err := c.backend.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embedder: backend %s returned no embedding: %w",
			c.backend.Name(), rag.ErrUpstreamUnavailable)
	}
	if len(vecs[0]) != c.dimensions {
		c.log.Warn("embedding dimension differs from configured width",
			slog.String("backend", c.backend.Name()),
			slog.Int("want", c.dimensions),
			slog.Int("got", len(vecs[0])))
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in windows of batchWindow, with one concurrent
// upstream call per text inside a window. Windows run sequentially, paced by
// the rate limiter when one is set. The first failure aborts the batch.
// The returned slice is parallel to the input slice.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embedder: %w", rag.ErrEmptyInput)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("embedder: text at index %d is empty: %w", i, rag.ErrEmptyInput)
		}
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += batchWindow {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("embedder: rate limiter: %w", err)
			}
		}

		end := min(start+batchWindow, len(texts))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			firstErr error
		)
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				vec, err := c.embedOne(ctx, texts[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("embedder: text %d of %d: %w", i+1, len(texts), err)
					}
					mu.Unlock()
					return
				}
				out[i] = vec
			}(i)
		}
		wg.Wait()

		if firstErr != nil {
			return nil, firstErr
		}
	}
	return out, nil
}

// truncate caps a text at maxTextLen characters.
func truncate(text string) string {
	if len(text) <= maxTextLen {
		return text
	}
	return text[:maxTextLen]
}
