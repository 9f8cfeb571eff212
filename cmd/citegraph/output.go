package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dimarzo/citegraph/internal/pipeline"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputSummary prints one phase summary in the selected format.
func outputSummary(phase string, s pipeline.Summary) error {
	if humanOutput {
		fmt.Printf("%s: %d succeeded, %d skipped, %d failed\n", phase, s.Succeeded, s.Skipped, s.Failed)
		return nil
	}
	return outputJSON(map[string]interface{}{"phase": phase, "summary": s})
}

// outputSummaries prints all phase summaries in a stable order.
func outputSummaries(summaries map[string]pipeline.Summary) error {
	if humanOutput {
		phases := make([]string, 0, len(summaries))
		for name := range summaries {
			phases = append(phases, name)
		}
		sort.Strings(phases)
		for _, name := range phases {
			if err := outputSummary(name, summaries[name]); err != nil {
				return err
			}
		}
		return nil
	}
	return outputJSON(summaries)
}
