package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexph/batasrag-go/internal/ingestion"
	"github.com/lexph/batasrag-go/internal/logging"
	"github.com/lexph/batasrag-go/internal/rag"
)

// NewIngestCmd constructs the `batas ingest` command, which chunks, embeds,
// and stores legal documents in the vector store.
func NewIngestCmd() *cobra.Command {
	var category string
	var year int
	var jurisdiction string
	var delayMS int

	cmd := &cobra.Command{
		Use:   "ingest [file|directory]...",
		Short: "Ingest legal documents into the vector store",
		Long: `Chunk, embed, and store legal documents for retrieval.

Each argument is a text file or a directory of .txt/.md files. The document
ID is derived from the file name (e.g. ra-4136.txt becomes "ra-4136"), and
classification metadata is inferred from the ID prefix: "ra" and "bp" map
to statutes, "ao" to administrative orders, "mc" to memorandum circulars,
and so on. The --category, --year, and --jurisdiction flags override
inference for the whole batch.

One document failing does not abort the rest; the per-document outcome is
printed at the end and the command exits non-zero if any document failed.

Examples:
  batas ingest corpus/
  batas ingest corpus/ra-4136.txt corpus/ra-10586.txt
  batas ingest --category statute --year 1964 corpus/ra-4136.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			docs, err := collectDocuments(args)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			if len(docs) == 0 {
				return fmt.Errorf("ingest: no .txt or .md files found in %s", strings.Join(args, ", "))
			}
			for i := range docs {
				if cmd.Flags().Changed("category") {
					docs[i].Metadata.Category = category
				}
				if cmd.Flags().Changed("year") {
					docs[i].Metadata.Year = year
				}
				if cmd.Flags().Changed("jurisdiction") {
					docs[i].Metadata.Jurisdiction = jurisdiction
				}
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			vs, _, closeStore, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer closeStore()

			pipeline, err := ingestion.NewPipeline(emb, vs, &ingestion.Config{
				ChunkSize:     getEnvInt("CHUNK_SIZE", 0),
				ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 0),
				DocumentDelay: time.Duration(delayMS) * time.Millisecond,
			}, log)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			report := pipeline.Ingest(ctx, docs)

			for _, r := range report.Results {
				if r.State == ingestion.StateDone {
					fmt.Printf("  ok    %s (%d chunks)\n", r.DocumentID, r.Chunks)
				} else {
					fmt.Printf("  FAIL  %s: %s\n", r.DocumentID, r.Error)
				}
			}
			fmt.Printf("ingested %d of %d documents\n", report.SuccessCount, len(report.Results))

			if !report.Success {
				return fmt.Errorf("ingest: %d of %d documents failed", report.FailureCount, len(report.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Document category override (statute, administrative-order, ...)")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Enactment year override")
	cmd.Flags().StringVarP(&jurisdiction, "jurisdiction", "j", "", "Jurisdiction override (default inferred: PH)")
	cmd.Flags().IntVar(&delayMS, "delay-ms", getEnvInt("INGEST_DOCUMENT_DELAY_MS", 0), "Pause between documents in milliseconds (rate limit headroom)")

	return cmd
}

// collectDocuments reads the given files and directories into documents.
// Directories are scanned one level deep for .txt and .md files. The
// document ID is the lowercased file name without its extension.
func collectDocuments(paths []string) ([]rag.Document, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch filepath.Ext(e.Name()) {
			case ".txt", ".md":
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	sort.Strings(files)

	docs := make([]rag.Document, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		base := filepath.Base(f)
		id := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
		docs = append(docs, rag.Document{ID: id, Text: string(data)})
	}
	return docs, nil
}
