// Package pipeline sequences the citation-graph stages over a batch of
// seeds. Each of the five phases writes a durable artifact, so a later
// phase can re-run against a previous phase's output without re-fetching.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"

	"github.com/dimarzo/citegraph/internal/doi"
	"github.com/dimarzo/citegraph/internal/graph"
	"github.com/dimarzo/citegraph/internal/opencitations"
	"github.com/dimarzo/citegraph/internal/record"
)

// RelationSource fetches citation relations for a seed in one direction.
type RelationSource interface {
	Citations(ctx context.Context, seed string, dir opencitations.Direction) ([]opencitations.Relation, error)
}

// MetadataSource fetches a bibliographic record and its raw references.
type MetadataSource interface {
	Work(ctx context.Context, id string) (record.Record, []string, error)
}

// Summary counts the per-item outcomes of one phase. Failures are always
// per-item; a non-loadable batch surfaces as an error instead.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Total returns the number of items processed.
func (s Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed
}

func (s *Summary) add(other Summary) {
	s.Succeeded += other.Succeeded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Runner drives the pipeline phases.
type Runner struct {
	Relations RelationSource
	Metadata  MetadataSource

	// Workers bounds the number of concurrent fetches; zero or negative
	// means sequential.
	Workers int

	// ArtifactsDir holds the intermediate and final outputs.
	ArtifactsDir string

	// Log receives per-item diagnostics; defaults to stderr.
	Log io.Writer
}

func (r *Runner) logf(format string, args ...interface{}) {
	w := r.Log
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return 1
	}
	return r.Workers
}

// ValidateSeed checks that a seed is a well-formed absolute http(s) URL or
// a canonicalizable DOI.
func ValidateSeed(seed string) error {
	if u, err := url.Parse(seed); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return nil
	}
	if _, err := doi.Canonicalize(seed); err != nil {
		return fmt.Errorf("seed is neither an absolute URL nor a DOI: %w", err)
	}
	return nil
}

// seedResult carries one seed's outcome from a worker to the collector.
type seedResult struct {
	seed string
	rows []graph.RelationRow
	err  error
}

// FetchCiting runs phase one: for each seed, fetch the entities citing it
// and write the rows to the citing artifact.
func (r *Runner) FetchCiting(ctx context.Context, seeds []string) (Summary, error) {
	return r.fetchRelations(ctx, seeds, opencitations.Citing, r.citingPath())
}

// FetchCited runs phase two: for each seed, fetch the entities it cites
// and write the rows to the cited artifact.
func (r *Runner) FetchCited(ctx context.Context, seeds []string) (Summary, error) {
	return r.fetchRelations(ctx, seeds, opencitations.Cited, r.citedPath())
}

// fetchRelations fans the seed batch out to a bounded worker pool. Workers
// send results to a single collector; no shared slice is written from more
// than one goroutine and no lock is held across a network call. Cancelling
// ctx stops dispatching new seeds; in-flight requests finish or time out,
// and rows collected so far are still written out.
func (r *Runner) fetchRelations(ctx context.Context, seeds []string, dir opencitations.Direction, outPath string) (Summary, error) {
	var summary Summary

	valid := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		if err := ValidateSeed(seed); err != nil {
			r.logf("skip [seeds] %s: %v", seed, err)
			summary.Skipped++
			continue
		}
		valid = append(valid, seed)
	}

	jobs := make(chan string)
	results := make(chan seedResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range jobs {
				relations, err := r.Relations.Citations(ctx, seed, dir)
				res := seedResult{seed: seed, err: err}
				for _, rel := range relations {
					res.rows = append(res.rows, graph.RelationRow{
						Seed:        seed,
						CitationURI: rel.CitationURI,
						Entity:      rel.OtherEntity,
					})
				}
				results <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, seed := range valid {
			select {
			case jobs <- seed:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var rows []graph.RelationRow
	for res := range results {
		if res.err != nil {
			if opencitations.IsRateLimited(res.err) {
				r.logf("skip [index/%s] %s: throttled: %v", dir, res.seed, res.err)
			} else {
				r.logf("skip [index/%s] %s: %v", dir, res.seed, res.err)
			}
			summary.Failed++
			continue
		}
		rows = append(rows, res.rows...)
		summary.Succeeded++
	}

	if err := writeJSONL(outPath, rows); err != nil {
		return summary, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return summary, nil
}
