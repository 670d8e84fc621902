package answer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/lexph/batasrag-go/internal/rag"
)

// fakeRetriever returns canned results or a canned error.
type fakeRetriever struct {
	results []rag.SearchResult
	err     error
	gotK    int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, topK int) ([]rag.SearchResult, error) {
	f.gotK = topK
	return f.results, f.err
}

func Test_Service_Ask_Success(t *testing.T) {
	t.Parallel()

	retr := &fakeRetriever{results: someResults()}
	svc, err := NewService(retr, NewAssembler(&fakeChatModel{reply: "Yes, under RA 10586 [1]."}), 7, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res := svc.Ask(context.Background(), "Is drunk driving illegal?")
	if !res.Success {
		t.Fatalf("ask failed: %s", res.Error)
	}
	if res.Answer == "" || res.SourceCount != 3 {
		t.Errorf("result = %+v", res)
	}
	if retr.gotK != 7 {
		t.Errorf("topK = %d, want 7", retr.gotK)
	}
}

func Test_Service_Ask_EmptyQuestion(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&fakeRetriever{}, NewAssembler(nil), 0, nil)

	res := svc.Ask(context.Background(), "   ")
	if res.Success {
		t.Error("empty question must fail")
	}
	if res.Error == "" {
		t.Error("failure must carry an error message")
	}
}

func Test_Service_Ask_RetrievalFailureIsStructured(t *testing.T) {
	t.Parallel()

	retr := &fakeRetriever{err: fmt.Errorf("embedder: %w", rag.ErrUpstreamUnavailable)}
	svc, _ := NewService(retr, NewAssembler(nil), 0, nil)

	res := svc.Ask(context.Background(), "a question")
	if res.Success {
		t.Error("retrieval failure must not be a success")
	}
	if !strings.Contains(res.Error, "retrieval failed") {
		t.Errorf("error = %q", res.Error)
	}
}

func Test_Service_Ask_NoResultsSaysSo(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&fakeRetriever{}, NewAssembler(&fakeChatModel{reply: "unused"}), 0, nil)

	res := svc.Ask(context.Background(), "something obscure")
	if !res.Success {
		t.Fatalf("no-result ask must still succeed: %s", res.Error)
	}
	if !strings.Contains(res.Answer, NoInfoMarker) {
		t.Errorf("answer = %q, want the no-information phrase", res.Answer)
	}
	if res.SourceCount != 0 {
		t.Errorf("sourceCount = %d, want 0", res.SourceCount)
	}
}

func Test_NewService_RejectsNilDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil, NewAssembler(nil), 0, nil); err == nil {
		t.Error("nil retriever must be rejected")
	}
	if _, err := NewService(&fakeRetriever{}, nil, 0, nil); err == nil {
		t.Error("nil assembler must be rejected")
	}
}
