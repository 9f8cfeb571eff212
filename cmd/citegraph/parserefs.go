package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dimarzo/citegraph/internal/refparse"
)

func init() {
	rootCmd.AddCommand(parseRefsCmd)
	rootCmd.AddCommand(pdfDOIsCmd)
}

var parseRefsCmd = &cobra.Command{
	Use:   "parse-refs [file]",
	Short: "Parse free-text references into DOI/PMID/title entries",
	Long: `parse-refs reads one raw reference string per line from a file, or
from stdin when no file is given, and prints the parsed entries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening references file: %w", err)
			}
			defer f.Close()
			in = f
		}

		var entries []refparse.Entry
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			entries = append(entries, refparse.Parse(line))
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading references: %w", err)
		}

		if humanOutput {
			for _, e := range entries {
				switch {
				case e.DOI != "":
					fmt.Printf("doi %s\n", e.DOI)
				case e.PMID != "":
					fmt.Printf("pmid %s\n", e.PMID)
				case e.Title != "":
					fmt.Printf("title %q\n", e.Title)
				default:
					fmt.Printf("unparsed %q\n", e.Raw)
				}
			}
			return nil
		}
		return outputJSON(entries)
	},
}
