package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	matchCorpusFlag    string
	matchArtifactsFlag string
)

func init() {
	matchCmd.Flags().StringVar(&matchCorpusFlag, "corpus", "", "CSV of known corpus DOIs (id column)")
	matchCmd.Flags().StringVar(&matchArtifactsFlag, "artifacts", "", "Artifacts directory (overrides config)")
	_ = matchCmd.MarkFlagRequired("corpus")
	rootCmd.AddCommand(matchCmd)
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Resolve parsed references against the known corpus into graph edges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		runner := newRunner(cfg, 0, matchArtifactsFlag)
		summary, err := runner.Match(context.Background(), matchCorpusFlag)
		if err != nil {
			return err
		}
		return outputSummary("match", summary)
	},
}
