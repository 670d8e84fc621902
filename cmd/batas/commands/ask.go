package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexph/batasrag-go/internal/answer"
	"github.com/lexph/batasrag-go/internal/logging"
	"github.com/lexph/batasrag-go/internal/provider"
	"github.com/lexph/batasrag-go/internal/rag"
)

// NewAskCmd constructs the `batas ask` command, which answers a single
// natural language question from the ingested corpus and prints the answer
// with its citations to stdout.
func NewAskCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about Philippine land transportation law",
		Long: `Ask a natural language question against the ingested legal corpus.

The question is embedded, the most similar chunks are retrieved from the
vector store, and the answer model composes a grounded answer citing the
source documents. If the answer model is unreachable the most relevant
passages are printed verbatim instead.

Examples:
  batas ask "what is the speed limit on expressways?"
  batas ask --top-k 10 "what are the penalties for driving without a license?"
  batas ask "who may apply for a student permit?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			vs, _, closeStore, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeStore()

			retriever, err := rag.NewRetriever(emb, vs, topK, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				// Retrieval still works without a model; answers degrade to
				// passage listings.
				log.Warn("answer model unavailable, responses will be degraded",
					slog.Any("error", err))
				chatModel = nil
			}
			assembler := answer.NewAssembler(chatModel, answer.WithLogger(log))

			svc, err := answer.NewService(retriever, assembler, topK, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			question := strings.Join(args, " ")
			result := svc.Ask(ctx, question)
			if !result.Success {
				return fmt.Errorf("ask: %s", result.Error)
			}

			fmt.Println(result.Answer)
			if len(result.Citations) > 0 {
				fmt.Println("\nSources:")
				for i, c := range result.Citations {
					fmt.Printf("  [%d] %s — %s\n", i+1, c.DocumentID, c.Text)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of chunks to retrieve")

	return cmd
}
