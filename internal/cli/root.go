// Package cli implements the offline ingestion commands.
package cli

import (
	"fmt"
	"os"
	"trivia-rag/internal/config"
	"trivia-rag/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "trivia-ingest",
	Short: "Build and inspect the document index used for question generation",
	Long: `trivia-ingest loads documents into the vector index that the API server
reads when a request sets use_existing_index.

Example usage:
  trivia-ingest ingest notes.md chapter1.pdf   # Chunk, embed and store files
  trivia-ingest ingest --reset                 # Drop the collection
  trivia-ingest query -q "important concept 1" # Show retrieved context`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfigFile(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logger.Initialize(cfg.Logger); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}
