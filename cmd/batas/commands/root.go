// Package commands defines all Cobra CLI commands for the batas binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lexph/batasrag-go/internal/audit"
	"github.com/lexph/batasrag-go/internal/config"
	"github.com/lexph/batasrag-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "batas",
		Short: "Batas — ask a lawyer about Philippine land transportation law",
		Long: `Batas is a retrieval-augmented legal research assistant for Philippine
land transportation law.

It ingests statutes, administrative orders, and circulars into a vector
store, and answers natural language questions with citations back to the
source documents. When the answer model is unreachable it degrades to
returning the most relevant passages verbatim.

Model and embedding providers are selected via the MODEL_PROVIDER and
EMBEDDING_PROVIDER environment variables or a YAML config file
(~/.batas/config.yaml). See 'batas --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; absence is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.batas/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewIngestCmd(),
		NewServeCmd(),
		NewStatsCmd(),
		NewDeleteCmd(),
		NewVersionCmd(),
	)

	return root
}
