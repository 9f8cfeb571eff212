// Package main provides the citegraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath is the optional pipeline configuration file.
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citegraph",
	Short: "Citation graph assembly from OpenCitations and Crossref",
	Long: `citegraph reconciles DOIs gathered from the OpenCitations Index,
the Crossref works API, and free-text reference lists into a verified,
deduplicated citation graph.

The pipeline runs as five phases, each writing a durable artifact so a
failed later phase can be re-run without re-fetching:

  fetch-citing   query the index for entities citing each seed
  fetch-cited    query the index for entities each seed cites
  merge          outer-join both relation sets on the seed
  metadata       fetch Crossref records and parse raw references
  match          verify parsed references against the known corpus

Results are written as JSON to stdout by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to citegraph.yml (defaults apply when omitted)")
	rootCmd.Version = Version
}
