package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dimarzo/citegraph/internal/pdfref"
)

var pdfDOIsCmd = &cobra.Command{
	Use:   "pdf-dois <file.pdf>",
	Short: "Extract DOIs from a PDF's references section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening PDF: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		dois, err := pdfref.ExtractDOIs(f, info.Size())
		if err != nil {
			return fmt.Errorf("extracting DOIs from %s: %w", args[0], err)
		}

		if humanOutput {
			for _, d := range dois {
				fmt.Println(d)
			}
			return nil
		}
		return outputJSON(map[string]interface{}{"file": args[0], "dois": dois})
	},
}
