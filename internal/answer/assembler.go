// Package answer turns retrieved legal passages into a grounded answer with
// citations. The assembler never invents sources: every claim in a generated
// answer is backed by a retrieved chunk, and when nothing relevant was found
// it says so instead of speculating.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/lexph/batasrag-go/internal/budget"
	"github.com/lexph/batasrag-go/internal/rag"
)

// NoInfoMarker is the literal phrase the model is instructed to emit when the
// retrieved passages do not cover the question. Its presence in a generated
// answer strips the citations, since they did not contribute.
const NoInfoMarker = "I don't have information about this"

// systemPrompt constrains the model to the retrieved passages.
const systemPrompt = `You are a legal research assistant for Philippine land transportation law.
Answer the question using ONLY the numbered source passages provided.
Cite sources inline as [1], [2] etc. matching the passage numbers.
If the passages do not contain the answer, reply exactly:
"` + NoInfoMarker + `"
Do not use outside knowledge. Do not give legal advice; describe what the law says.`

// Assembler builds grounded answers from retrieved passages using a chat
// model. When the model is unavailable it degrades to returning the raw
// passages so the caller still gets the retrieved law text.
type Assembler struct {
	// chatModel generates the answer text. May be nil, in which case every
	// answer is the degraded passage listing.
	chatModel model.ToolCallingChatModel
	// maxContextTokens bounds the passage text handed to the model.
	maxContextTokens int
	// log receives degradation warnings.
	log *slog.Logger
}

// Answer is a grounded answer with the sources that produced it.
type Answer struct {
	// Content is the answer text shown to the user.
	Content string `json:"content"`
	// Citations lists the supporting passages, one entry per retrieved
	// result with its full chunk text, in retrieval order.
	Citations []rag.Citation `json:"citations"`
	// SourceCount is the number of cited passages.
	SourceCount int `json:"sourceCount"`
	// Degraded is true when the chat model was unavailable and Content is a
	// passage listing rather than a generated answer.
	Degraded bool `json:"degraded,omitempty"`
}

// AssemblerOption customizes an Assembler.
type AssemblerOption func(*Assembler)

// WithMaxContextTokens overrides the context budget for passage text.
func WithMaxContextTokens(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.maxContextTokens = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) AssemblerOption {
	return func(a *Assembler) { a.log = log }
}

// NewAssembler constructs an Assembler over the given chat model. A nil model
// is allowed and forces degraded (passages-only) answers.
func NewAssembler(chatModel model.ToolCallingChatModel, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		chatModel:        chatModel,
		maxContextTokens: budget.DefaultMaxContextTokens,
		log:              slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble produces an answer to the question from the retrieved results.
// With no results it returns the no-information answer. With results but no
// working chat model it returns the passages verbatim, flagged as degraded,
// keeping the citations intact.
func (a *Assembler) Assemble(ctx context.Context, question string, results []rag.SearchResult) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("answer: %w", rag.ErrEmptyInput)
	}
	if len(results) == 0 {
		return Answer{Content: NoInfoMarker + "."}, nil
	}

	citations := collectCitations(results)
	passages := trimmedPassages(question, results, a.maxContextTokens)

	if a.chatModel == nil {
		return degraded(results, citations), nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildPrompt(question, passages)),
	}
	resp, err := a.chatModel.Generate(ctx, messages)
	if err != nil {
		a.log.Warn("answer generation failed, returning raw passages",
			slog.String("error", err.Error()))
		return degraded(results, citations), nil
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		a.log.Warn("chat model returned empty answer, returning raw passages")
		return degraded(results, citations), nil
	}

	// When the model declares it has nothing, the sources did not contribute.
	if strings.Contains(content, NoInfoMarker) {
		return Answer{Content: content}, nil
	}

	return Answer{
		Content:     content,
		Citations:   citations,
		SourceCount: len(citations),
	}, nil
}

// degraded builds the passages-only fallback answer.
func degraded(results []rag.SearchResult, citations []rag.Citation) Answer {
	var b strings.Builder
	b.WriteString("The answer service is currently unavailable. ")
	b.WriteString("Here are the most relevant passages found:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] Source: %s\n%s\n", i+1, r.DocumentID, strings.TrimSpace(r.Text))
	}
	return Answer{
		Content:     b.String(),
		Citations:   citations,
		SourceCount: len(citations),
		Degraded:    true,
	}
}

// buildPrompt renders the numbered context block followed by the question.
func buildPrompt(question string, passages []string) string {
	var b strings.Builder
	b.WriteString("Source passages:\n")
	for _, p := range passages {
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// trimmedPassages renders each result as a numbered passage and drops
// lowest-ranked passages until the set fits the context budget.
func trimmedPassages(question string, results []rag.SearchResult, maxTokens int) []string {
	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = fmt.Sprintf("[%d] Source: %s\n%s", i+1, r.DocumentID, strings.TrimSpace(r.Text))
	}
	fixed := budget.Estimate(systemPrompt) + budget.Estimate(question)
	return budget.TrimPassages(passages, fixed, maxTokens)
}

// collectCitations maps every retrieved result to a citation, one entry per
// passage with the full chunk text, preserving the order given.
func collectCitations(results []rag.SearchResult) []rag.Citation {
	citations := make([]rag.Citation, len(results))
	for i, r := range results {
		citations[i] = rag.Citation{
			DocumentID: r.DocumentID,
			Text:       r.Text,
		}
	}
	return citations
}
