package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dimarzo/citegraph/internal/corpus"
	"github.com/dimarzo/citegraph/internal/crossref"
	"github.com/dimarzo/citegraph/internal/doi"
	"github.com/dimarzo/citegraph/internal/graph"
	"github.com/dimarzo/citegraph/internal/metastore"
	"github.com/dimarzo/citegraph/internal/record"
	"github.com/dimarzo/citegraph/internal/refparse"
)

// Merge runs phase three: full outer join of the citing and cited
// artifacts keyed on the seed.
func (r *Runner) Merge(ctx context.Context) (Summary, error) {
	citing, err := readJSONL[graph.RelationRow](r.citingPath())
	if err != nil {
		return Summary{}, err
	}
	cited, err := readJSONL[graph.RelationRow](r.citedPath())
	if err != nil {
		return Summary{}, err
	}

	merged := graph.MergeRelationRows(citing, cited)
	if err := writeJSONL(r.mergedPath(), merged); err != nil {
		return Summary{}, fmt.Errorf("writing %s: %w", r.mergedPath(), err)
	}

	return Summary{Succeeded: len(merged)}, nil
}

// workResult carries one identifier's metadata fetch to the collector.
type workResult struct {
	id   string
	rec  record.Record
	refs []string
	err  error
}

// FetchMetadata runs phase four: resolve the distinct citing-entity DOIs
// from the citing artifact, fetch each work's metadata and raw references,
// and write the record store and the parsed reference artifact.
func (r *Runner) FetchMetadata(ctx context.Context) (Summary, error) {
	rows, err := readJSONL[graph.RelationRow](r.citingPath())
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{})
	for _, row := range rows {
		canon, err := doi.Canonicalize(row.Entity)
		if err != nil {
			r.logf("skip [metadata] %s: not a DOI entity", row.Entity)
			summary.Skipped++
			continue
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		ids = append(ids, canon)
	}
	sort.Strings(ids)

	store := metastore.New()
	var refs []graph.CitingRefs

	results := r.fetchWorks(ctx, ids)
	for res := range results {
		if crossref.IsNotFound(res.err) {
			r.logf("skip [crossref] %s: no record", res.id)
			summary.Skipped++
			continue
		}
		if res.err != nil {
			r.logf("skip [crossref] %s: %v", res.id, res.err)
			summary.Failed++
			continue
		}
		if err := store.Upsert(res.rec); err != nil {
			r.logf("skip [crossref] %s: %v", res.id, err)
			summary.Failed++
			continue
		}

		entry := graph.CitingRefs{Citing: res.id}
		for _, raw := range res.refs {
			entry.Refs = append(entry.Refs, refparse.Parse(raw))
		}
		refs = append(refs, entry)
		summary.Succeeded++
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Citing < refs[j].Citing })

	if err := store.SaveJSONL(r.recordsPath()); err != nil {
		return summary, fmt.Errorf("writing %s: %w", r.recordsPath(), err)
	}
	if err := writeJSONL(r.referencesPath(), refs); err != nil {
		return summary, fmt.Errorf("writing %s: %w", r.referencesPath(), err)
	}
	return summary, nil
}

// Match runs phase five: verify parsed references against the known corpus
// and write the final artifacts.
func (r *Runner) Match(ctx context.Context, corpusPath string) (Summary, error) {
	known, err := corpus.Load(corpusPath)
	if err != nil {
		return Summary{}, err
	}
	if known.Skipped() > 0 {
		r.logf("skip [corpus] %d malformed rows", known.Skipped())
	}

	candidates, err := readJSONL[graph.CitingRefs](r.referencesPath())
	if err != nil {
		return Summary{}, err
	}

	result := graph.Match(known, candidates)

	if err := r.writeEdgesCSV(result.Edges); err != nil {
		return Summary{}, err
	}
	if err := writeJSONL(r.artifactPath(UnmatchedFile), result.Unmatched); err != nil {
		return Summary{}, fmt.Errorf("writing unmatched artifact: %w", err)
	}

	store, err := metastore.LoadJSONL(r.recordsPath())
	if err != nil {
		return Summary{}, err
	}
	if err := r.exportRecordTable(store); err != nil {
		return Summary{}, err
	}
	if err := store.ExportSQLite(r.artifactPath(RecordDBFile)); err != nil {
		return Summary{}, fmt.Errorf("writing record database: %w", err)
	}

	return Summary{
		Succeeded: result.Edges.Len(),
		Skipped:   len(result.Unmatched),
	}, nil
}

// Run executes all five phases in order.
func (r *Runner) Run(ctx context.Context, seeds []string, corpusPath string) (map[string]Summary, error) {
	summaries := make(map[string]Summary)

	phases := []struct {
		name string
		run  func() (Summary, error)
	}{
		{"fetch-citing", func() (Summary, error) { return r.FetchCiting(ctx, seeds) }},
		{"fetch-cited", func() (Summary, error) { return r.FetchCited(ctx, seeds) }},
		{"merge", func() (Summary, error) { return r.Merge(ctx) }},
		{"metadata", func() (Summary, error) { return r.FetchMetadata(ctx) }},
		{"match", func() (Summary, error) { return r.Match(ctx, corpusPath) }},
	}

	for _, phase := range phases {
		summary, err := phase.run()
		summaries[phase.name] = summary
		if err != nil {
			return summaries, fmt.Errorf("phase %s: %w", phase.name, err)
		}
	}

	return summaries, nil
}

func (r *Runner) writeEdgesCSV(edges *graph.Set) error {
	path := r.artifactPath(EdgesFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"citing", "cited"}); err != nil {
		return fmt.Errorf("writing edges header: %w", err)
	}
	for _, e := range edges.Edges() {
		if err := w.Write([]string{e.Citing, e.Cited}); err != nil {
			return fmt.Errorf("writing edge row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (r *Runner) exportRecordTable(store *metastore.Store) error {
	path := r.artifactPath(RecordTableFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return store.ExportCSV(f)
}

// fetchWorks fans metadata lookups out to the worker pool and returns the
// collector channel.
func (r *Runner) fetchWorks(ctx context.Context, ids []string) <-chan workResult {
	jobs := make(chan string)
	results := make(chan workResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				rec, rawRefs, err := r.Metadata.Work(ctx, id)
				results <- workResult{id: id, rec: rec, refs: rawRefs, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
