package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexph/batasrag-go/internal/rag"
)

// Result is the outcome of a single question, shaped for the API and CLI.
// Failures are carried in-band rather than as Go errors so callers always
// have something renderable.
type Result struct {
	// Success is false when the question could not be answered at all.
	Success bool `json:"success"`
	// Answer is the answer text. Empty on failure.
	Answer string `json:"answer,omitempty"`
	// Citations lists the supporting passages, one per retrieved result,
	// in retrieval order.
	Citations []rag.Citation `json:"citations,omitempty"`
	// SourceCount is the number of cited passages.
	SourceCount int `json:"sourceCount"`
	// Degraded is true when the answer is a raw passage listing.
	Degraded bool `json:"degraded,omitempty"`
	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`
}

// Service answers questions end to end: retrieve relevant chunks, then
// assemble a grounded answer.
type Service struct {
	retriever rag.Retriever
	assembler *Assembler
	topK      int
	log       *slog.Logger
}

// NewService constructs a Service. topK is the number of chunks retrieved per
// question; zero or negative selects the retriever's default.
func NewService(retriever rag.Retriever, assembler *Assembler, topK int, log *slog.Logger) (*Service, error) {
	if retriever == nil {
		return nil, fmt.Errorf("answer: retriever must not be nil")
	}
	if assembler == nil {
		return nil, fmt.Errorf("answer: assembler must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{retriever: retriever, assembler: assembler, topK: topK, log: log}, nil
}

// Ask answers a question about the corpus. It never returns a Go error for
// question-level failures; those are reported in the Result.
func (s *Service) Ask(ctx context.Context, question string) Result {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{Success: false, Error: "question must not be empty"}
	}

	start := time.Now()
	results, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		s.log.Error("retrieval failed",
			slog.String("error", err.Error()))
		return Result{Success: false, Error: "retrieval failed: " + err.Error()}
	}

	ans, err := s.assembler.Assemble(ctx, question, results)
	if err != nil {
		s.log.Error("answer assembly failed",
			slog.String("error", err.Error()))
		return Result{Success: false, Error: "answer assembly failed: " + err.Error()}
	}

	s.log.Info("question answered",
		slog.Int("retrieved", len(results)),
		slog.Int("sources", ans.SourceCount),
		slog.Bool("degraded", ans.Degraded),
		slog.Duration("took", time.Since(start)))

	return Result{
		Success:     true,
		Answer:      ans.Content,
		Citations:   ans.Citations,
		SourceCount: ans.SourceCount,
		Degraded:    ans.Degraded,
	}
}
