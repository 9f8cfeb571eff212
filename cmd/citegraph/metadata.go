package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	metadataWorkersFlag   int
	metadataArtifactsFlag string
)

func init() {
	// Load .env file if present (for CROSSREF_MAILTO)
	_ = godotenv.Load()

	metadataCmd.Flags().IntVar(&metadataWorkersFlag, "workers", 0, "Concurrent fetch workers (overrides config)")
	metadataCmd.Flags().StringVar(&metadataArtifactsFlag, "artifacts", "", "Artifacts directory (overrides config)")
	rootCmd.AddCommand(metadataCmd)
}

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Fetch Crossref records for merged citing entities and parse their references",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := newRunner(cfg, metadataWorkersFlag, metadataArtifactsFlag)
		summary, err := runner.FetchMetadata(ctx)
		if err != nil {
			return err
		}
		return outputSummary("metadata", summary)
	},
}
