package main

import (
	"context"

	"github.com/spf13/cobra"
)

var mergeArtifactsFlag string

func init() {
	mergeCmd.Flags().StringVar(&mergeArtifactsFlag, "artifacts", "", "Artifacts directory (overrides config)")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Outer-join the citing and cited relation sets on the seed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		runner := newRunner(cfg, 0, mergeArtifactsFlag)
		summary, err := runner.Merge(context.Background())
		if err != nil {
			return err
		}
		return outputSummary("merge", summary)
	},
}
