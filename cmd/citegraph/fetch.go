package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dimarzo/citegraph/internal/pipeline"
)

var (
	seedsPath     string
	workersFlag   int
	artifactsFlag string
)

func init() {
	// Load .env file if present (for CROSSREF_MAILTO)
	_ = godotenv.Load()

	for _, cmd := range []*cobra.Command{fetchCitingCmd, fetchCitedCmd} {
		cmd.Flags().StringVar(&seedsPath, "seeds", "", "File of seed identifiers/URLs, one per line")
		cmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent fetch workers (overrides config)")
		cmd.Flags().StringVar(&artifactsFlag, "artifacts", "", "Artifacts directory (overrides config)")
		_ = cmd.MarkFlagRequired("seeds")
	}
	rootCmd.AddCommand(fetchCitingCmd)
	rootCmd.AddCommand(fetchCitedCmd)
}

var fetchCitingCmd = &cobra.Command{
	Use:   "fetch-citing",
	Short: "Fetch entities citing each seed from the OpenCitations Index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(func(ctx context.Context, r *pipeline.Runner, seeds []string) (pipeline.Summary, error) {
			return r.FetchCiting(ctx, seeds)
		}, "fetch-citing")
	},
}

var fetchCitedCmd = &cobra.Command{
	Use:   "fetch-cited",
	Short: "Fetch entities each seed cites from the OpenCitations Index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(func(ctx context.Context, r *pipeline.Runner, seeds []string) (pipeline.Summary, error) {
			return r.FetchCited(ctx, seeds)
		}, "fetch-cited")
	},
}

func runFetch(phase func(context.Context, *pipeline.Runner, []string) (pipeline.Summary, error), name string) error {
	cfg := loadConfig()
	seeds, err := readSeeds(seedsPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := newRunner(cfg, workersFlag, artifactsFlag)
	summary, err := phase(ctx, runner, seeds)
	if err != nil {
		return err
	}
	return outputSummary(name, summary)
}
