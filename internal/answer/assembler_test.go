package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/lexph/batasrag-go/internal/rag"
)

// fakeChatModel returns a canned reply and records the prompt it was given.
type fakeChatModel struct {
	reply  string
	broken bool
	prompt string
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if f.broken {
		return nil, fmt.Errorf("fake model: unavailable")
	}
	if len(in) > 0 {
		f.prompt = in[len(in)-1].Content
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("fake model: streaming not supported")
}

func (f *fakeChatModel) WithTools([]*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func someResults() []rag.SearchResult {
	meta := rag.Metadata{Category: "statute", Year: 2013, Jurisdiction: "PH", Status: rag.StatusActive}
	return []rag.SearchResult{
		{ChunkID: "ra-10586_chunk_0", DocumentID: "ra-10586", Text: "Driving under the influence is punishable.", Score: 0.92, Metadata: meta},
		{ChunkID: "ra-10586_chunk_3", DocumentID: "ra-10586", Text: "Penalties range from fines to imprisonment.", Score: 0.85, Metadata: meta},
		{ChunkID: "ra-4136_chunk_1", DocumentID: "ra-4136", Text: "All motor vehicles must be registered.", Score: 0.71, Metadata: meta},
	}
}

func Test_Assemble_GeneratedAnswerCarriesCitations(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{reply: "Driving under the influence is punishable [1]."}
	a := NewAssembler(chat)

	ans, err := a.Assemble(context.Background(), "Is drunk driving illegal?", someResults())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if ans.Content != chat.reply {
		t.Errorf("content = %q", ans.Content)
	}
	if ans.SourceCount != 3 {
		t.Errorf("sourceCount = %d, want one per passage", ans.SourceCount)
	}
	if len(ans.Citations) != 3 || ans.Citations[0].DocumentID != "ra-10586" || ans.Citations[2].DocumentID != "ra-4136" {
		t.Errorf("citations = %+v", ans.Citations)
	}
	if ans.Degraded {
		t.Error("generated answer must not be degraded")
	}
}

func Test_Assemble_PromptContainsNumberedPassages(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{reply: "ok"}
	a := NewAssembler(chat)

	if _, err := a.Assemble(context.Background(), "What about registration?", someResults()); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	for _, want := range []string{"[1] Source: ra-10586", "[3] Source: ra-4136", "Question: What about registration?"} {
		if !strings.Contains(chat.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func Test_Assemble_NoResultsMeansNoInformation(t *testing.T) {
	t.Parallel()

	a := NewAssembler(&fakeChatModel{reply: "should not be called"})

	ans, err := a.Assemble(context.Background(), "What is the airspeed of a swallow?", nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(ans.Content, NoInfoMarker) {
		t.Errorf("content = %q, want the no-information phrase", ans.Content)
	}
	if ans.SourceCount != 0 || len(ans.Citations) != 0 {
		t.Errorf("no-result answer must carry no sources: %+v", ans)
	}
}

func Test_Assemble_ModelDeclinesDropsCitations(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{reply: NoInfoMarker + ". The passages cover a different topic."}
	a := NewAssembler(chat)

	ans, err := a.Assemble(context.Background(), "What about maritime law?", someResults())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if ans.SourceCount != 0 || len(ans.Citations) != 0 {
		t.Errorf("declined answer must carry no citations: %+v", ans)
	}
}

func Test_Assemble_ModelFailureDegradesToPassages(t *testing.T) {
	t.Parallel()

	a := NewAssembler(&fakeChatModel{broken: true})

	ans, err := a.Assemble(context.Background(), "Is drunk driving illegal?", someResults())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !ans.Degraded {
		t.Fatal("want degraded answer on model failure")
	}
	if !strings.Contains(ans.Content, "currently unavailable") {
		t.Errorf("degraded content lacks warning: %q", ans.Content)
	}
	if !strings.Contains(ans.Content, "Driving under the influence") {
		t.Errorf("degraded content lacks passages: %q", ans.Content)
	}
	if len(ans.Citations) != 3 {
		t.Errorf("degraded answer keeps citations, got %+v", ans.Citations)
	}
}

func Test_Assemble_NilModelIsAlwaysDegraded(t *testing.T) {
	t.Parallel()

	a := NewAssembler(nil)

	ans, err := a.Assemble(context.Background(), "anything", someResults())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !ans.Degraded {
		t.Error("nil model must yield degraded answer")
	}
}

func Test_Assemble_EmptyQuestionRejected(t *testing.T) {
	t.Parallel()

	a := NewAssembler(&fakeChatModel{reply: "ok"})

	if _, err := a.Assemble(context.Background(), "  ", someResults()); !errors.Is(err, rag.ErrEmptyInput) {
		t.Errorf("want ErrEmptyInput, got %v", err)
	}
}

func Test_CollectCitations_OnePerPassageInOrder(t *testing.T) {
	t.Parallel()

	results := someResults()
	citations := collectCitations(results)
	if len(citations) != len(results) {
		t.Fatalf("got %d citations, want one per passage (%d)", len(citations), len(results))
	}
	for i, c := range citations {
		if c.DocumentID != results[i].DocumentID {
			t.Errorf("citation %d: document = %q, want %q", i, c.DocumentID, results[i].DocumentID)
		}
		if c.Text != results[i].Text {
			t.Errorf("citation %d: text must be the full chunk text, got %q", i, c.Text)
		}
	}
}
