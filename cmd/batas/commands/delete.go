package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexph/batasrag-go/internal/logging"
	"github.com/lexph/batasrag-go/internal/rag"
)

// NewDeleteCmd constructs the `batas delete` command, which removes a
// document and all of its chunks from the vector store.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [document-id]",
		Short: "Delete a document and its chunks from the corpus",
		Long: `Delete a document and every chunk belonging to it from the vector store.

Examples:
  batas delete ra-4136
  batas delete lto-ao-2021-04`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			vs, _, closeStore, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			defer closeStore()

			id := args[0]
			if err := vs.DeleteDocument(ctx, id); err != nil {
				if errors.Is(err, rag.ErrNotFound) {
					return fmt.Errorf("delete: document %q not found", id)
				}
				return fmt.Errorf("delete: %w", err)
			}

			fmt.Printf("deleted %s\n", id)
			return nil
		},
	}
}
