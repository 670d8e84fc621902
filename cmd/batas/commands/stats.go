package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lexph/batasrag-go/internal/logging"
)

// NewStatsCmd constructs the `batas stats` command, which prints corpus
// counts from the vector store.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document and chunk counts for the ingested corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			vs, _, closeStore, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			defer closeStore()

			stats, err := vs.Stats(ctx)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			fmt.Printf("documents: %d\n", stats.Documents)
			fmt.Printf("chunks:    %d\n", stats.Chunks)
			if len(stats.ByStatus) > 0 {
				statuses := make([]string, 0, len(stats.ByStatus))
				for s := range stats.ByStatus {
					statuses = append(statuses, s)
				}
				sort.Strings(statuses)
				fmt.Println("by status:")
				for _, s := range statuses {
					fmt.Printf("  %-10s %d\n", s, stats.ByStatus[s])
				}
			}
			return nil
		},
	}
}
