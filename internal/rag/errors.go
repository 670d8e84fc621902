package rag

import (
	"errors"
	"fmt"
)

// Sentinel errors for the retrieval pipeline. Components fail fast and typed;
// orchestration layers (batch ingestion, query-to-answer) catch these and
// convert them to structured results so no single document or query failure
// takes down a shared process. Classify with errors.Is.
var (
	// ErrEmptyInput marks chunking or embedding invoked with empty or
	// whitespace-only text. Chunking treats this as "no content" and returns
	// an empty result; embedding a blank string is always an error.
	ErrEmptyInput = errors.New("empty input")

	// ErrUpstreamUnavailable marks an embedding or generation provider that
	// is unreachable, returned an error, or produced a malformed response.
	// Never masked by placeholder vectors — a fake vector would participate
	// in similarity search as if it were real.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound marks a requested chunk or document that does not exist.
	// Callers treat this as "no data", not as exceptional.
	ErrNotFound = errors.New("not found")
)

// DimensionMismatchError describes two vectors of different length compared
// for similarity. Similarity search does not raise it — mismatched vectors
// score 0 with a logged warning so search stays resilient to partial data
// corruption — but the embedder and store use it to describe the condition.
type DimensionMismatchError struct {
	// Want is the expected vector length.
	Want int
	// Got is the observed vector length.
	Got int
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}
