package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	runSeedsFlag     string
	runCorpusFlag    string
	runWorkersFlag   int
	runArtifactsFlag string
)

func init() {
	// Load .env file if present (for CROSSREF_MAILTO)
	_ = godotenv.Load()

	runCmd.Flags().StringVar(&runSeedsFlag, "seeds", "", "File of seed identifiers/URLs, one per line")
	runCmd.Flags().StringVar(&runCorpusFlag, "corpus", "", "CSV of known corpus DOIs (id column)")
	runCmd.Flags().IntVar(&runWorkersFlag, "workers", 0, "Concurrent fetch workers (overrides config)")
	runCmd.Flags().StringVar(&runArtifactsFlag, "artifacts", "", "Artifacts directory (overrides config)")
	_ = runCmd.MarkFlagRequired("seeds")
	_ = runCmd.MarkFlagRequired("corpus")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all five pipeline phases in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		seeds, err := readSeeds(runSeedsFlag)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := newRunner(cfg, runWorkersFlag, runArtifactsFlag)
		summaries, err := runner.Run(ctx, seeds, runCorpusFlag)
		if err != nil {
			return err
		}
		return outputSummaries(summaries)
	},
}
