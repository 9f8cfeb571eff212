package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dimarzo/citegraph/internal/doi"
	"github.com/dimarzo/citegraph/internal/metastore"
	"github.com/dimarzo/citegraph/internal/pipeline"
	"github.com/dimarzo/citegraph/internal/record"
	"github.com/dimarzo/citegraph/internal/validate"
)

var validateArtifactsFlag string

func init() {
	// Load .env file if present (for CROSSREF_MAILTO)
	_ = godotenv.Load()

	validateCmd.Flags().StringVar(&validateArtifactsFlag, "artifacts", "", "Artifacts directory (overrides config)")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [doi...]",
	Short: "Cross-check stored records against OpenCitations Meta",
	Long: `validate compares each stored record with the entry OpenCitations
Meta holds for the same DOI. A record passes when the titles match, or
when the local authors appear among the remote authors and the
publishers agree. With no arguments every stored record is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		artifacts := validateArtifactsFlag
		if artifacts == "" {
			artifacts = cfg.ArtifactsDir
		}

		store, err := metastore.LoadJSONL(filepath.Join(artifacts, pipeline.RecordsFile))
		if err != nil {
			return err
		}
		if store.Len() == 0 {
			return fmt.Errorf("no stored records in %s; run the metadata phase first", artifacts)
		}

		for _, id := range args {
			if !doi.IsValid(id) {
				return fmt.Errorf("not a DOI: %s", id)
			}
		}

		ids := args
		if len(ids) == 0 {
			for _, rec := range store.All() {
				ids = append(ids, rec.DOI)
			}
			sort.Strings(ids)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		v := &validate.Validator{
			Local:  storeSource{store},
			Remote: newOpenCitationsClient(cfg),
			Policy: validate.DefaultPolicy,
		}
		outcomes := v.ValidateAll(ctx, ids)

		if humanOutput {
			for _, o := range outcomes {
				switch {
				case o.Err != nil:
					fmt.Printf("%s: skipped (%s)\n", o.DOI, o.Err)
				case o.Valid:
					fmt.Printf("%s: valid\n", o.DOI)
				default:
					fmt.Printf("%s: mismatch (title=%t author=%t publisher=%t)\n",
						o.DOI, o.Checks.Title, o.Checks.Author, o.Checks.Publisher)
				}
			}
			return nil
		}
		return outputJSON(outcomes)
	},
}

// storeSource adapts the metadata store to the validator's lookup interface.
type storeSource struct {
	store *metastore.Store
}

func (s storeSource) Metadata(_ context.Context, id string) (record.Record, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return record.Record{}, fmt.Errorf("no stored record for %s", id)
	}
	return rec, nil
}
