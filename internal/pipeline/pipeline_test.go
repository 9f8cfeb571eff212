package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dimarzo/citegraph/internal/crossref"
	"github.com/dimarzo/citegraph/internal/graph"
	"github.com/dimarzo/citegraph/internal/opencitations"
	"github.com/dimarzo/citegraph/internal/record"
)

// stubRelations serves canned relations per seed and direction.
type stubRelations struct {
	citing map[string][]opencitations.Relation
	cited  map[string][]opencitations.Relation
	fail   map[string]error
}

func (s *stubRelations) Citations(_ context.Context, seed string, dir opencitations.Direction) ([]opencitations.Relation, error) {
	if err, ok := s.fail[seed]; ok {
		return nil, err
	}
	if dir == opencitations.Citing {
		return s.citing[seed], nil
	}
	return s.cited[seed], nil
}

// stubMetadata serves canned records and raw references per DOI.
type stubMetadata struct {
	works map[string]record.Record
	refs  map[string][]string
	fail  map[string]error
}

func (s *stubMetadata) Work(_ context.Context, id string) (record.Record, []string, error) {
	if err, ok := s.fail[id]; ok {
		return record.Record{}, nil, err
	}
	rec, ok := s.works[id]
	if !ok {
		return record.Record{}, nil, errors.New("not found")
	}
	return rec, s.refs[id], nil
}

func newTestRunner(t *testing.T) (*Runner, *stubRelations, *stubMetadata) {
	t.Helper()
	relations := &stubRelations{
		citing: map[string][]opencitations.Relation{},
		cited:  map[string][]opencitations.Relation{},
		fail:   map[string]error{},
	}
	metadata := &stubMetadata{
		works: map[string]record.Record{},
		refs:  map[string][]string{},
		fail:  map[string]error{},
	}
	r := &Runner{
		Relations:    relations,
		Metadata:     metadata,
		Workers:      2,
		ArtifactsDir: t.TempDir(),
		Log:          io.Discard,
	}
	return r, relations, metadata
}

func writeCorpus(t *testing.T, ids ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id\n")
	for _, id := range ids {
		b.WriteString("doi:" + id + "\n")
	}
	path := filepath.Join(t.TempDir(), "corpus.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateSeed(t *testing.T) {
	tests := []struct {
		seed    string
		wantErr bool
	}{
		{"https://w3id.org/oc/meta/br/06101", false},
		{"http://example.org/entity", false},
		{"10.1000/abc", false},
		{"DOI:10.1000/abc", false},
		{"not a seed", true},
		{"ftp://example.org/x", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateSeed(tt.seed)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSeed(%q) error = %v, wantErr %v", tt.seed, err, tt.wantErr)
		}
	}
}

func TestFetchCitingSkipsInvalidSeeds(t *testing.T) {
	r, relations, _ := newTestRunner(t)
	seeds := []string{"10.1000/seed", "definitely not valid"}
	relations.citing["10.1000/seed"] = []opencitations.Relation{
		{CitationURI: "ci/1", OtherEntity: "https://doi.org/10.1000/c"},
	}

	summary, err := r.FetchCiting(context.Background(), seeds)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 1 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	rows, err := readJSONL[graph.RelationRow](r.citingPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Entity != "https://doi.org/10.1000/c" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestFetchCitingIsolatesFailures(t *testing.T) {
	r, relations, _ := newTestRunner(t)
	seeds := make([]string, 0, 10)
	for i := 0; i < 9; i++ {
		seed := "10.1000/seed" + string(rune('a'+i))
		seeds = append(seeds, seed)
		relations.citing[seed] = []opencitations.Relation{{CitationURI: "ci", OtherEntity: "e"}}
	}
	seeds = append(seeds, "10.1000/bad")
	relations.fail["10.1000/bad"] = errors.New("boom")

	summary, err := r.FetchCiting(context.Background(), seeds)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 9 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 9 succeeded and 1 failed", summary)
	}
}

func TestMergeOuterJoin(t *testing.T) {
	r, relations, _ := newTestRunner(t)
	relations.citing["10.1000/j1"] = []opencitations.Relation{{CitationURI: "ci/1", OtherEntity: "c1"}}
	relations.cited["10.1000/j1"] = []opencitations.Relation{{CitationURI: "ci/2", OtherEntity: "c2"}}

	if _, err := r.FetchCiting(context.Background(), []string{"10.1000/j1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.FetchCited(context.Background(), []string{"10.1000/j1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Merge(context.Background()); err != nil {
		t.Fatal(err)
	}

	merged, err := readJSONL[graph.MergedRow](r.mergedPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("got %d merged rows, want 1", len(merged))
	}
	if merged[0].CitingEntity != "c1" || merged[0].CitedEntity != "c2" {
		t.Errorf("merged row = %+v", merged[0])
	}
}

func TestFetchMetadataParsesReferences(t *testing.T) {
	r, relations, metadata := newTestRunner(t)
	relations.citing["10.1000/seed"] = []opencitations.Relation{
		{CitationURI: "ci/1", OtherEntity: "https://doi.org/10.1000/c"},
		{CitationURI: "ci/2", OtherEntity: "https://w3id.org/oc/meta/br/1"}, // not a DOI
	}
	metadata.works["10.1000/c"] = record.Record{DOI: "10.1000/c", Title: "Citing Work"}
	metadata.refs["10.1000/c"] = []string{
		"Smith J (2020) PMID:12345 10.1000/xyz123",
		"Black D (2014) The shape of citation graphs",
	}

	if _, err := r.FetchCiting(context.Background(), []string{"10.1000/seed"}); err != nil {
		t.Fatal(err)
	}
	summary, err := r.FetchMetadata(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}

	refs, err := readJSONL[graph.CitingRefs](r.referencesPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Citing != "10.1000/c" {
		t.Fatalf("refs = %+v", refs)
	}
	if len(refs[0].Refs) != 2 {
		t.Fatalf("got %d parsed refs, want 2", len(refs[0].Refs))
	}
	if refs[0].Refs[0].DOI != "10.1000/xyz123" || refs[0].Refs[0].PMID != "12345" {
		t.Errorf("first parsed ref = %+v", refs[0].Refs[0])
	}
	if refs[0].Refs[1].Title != "The shape of citation graphs" {
		t.Errorf("second parsed ref = %+v", refs[0].Refs[1])
	}
}

func TestFetchMetadataMissingWorkIsSkip(t *testing.T) {
	r, relations, metadata := newTestRunner(t)
	relations.citing["10.1000/seed"] = []opencitations.Relation{
		{CitationURI: "ci/1", OtherEntity: "https://doi.org/10.1000/c"},
		{CitationURI: "ci/2", OtherEntity: "https://doi.org/10.1000/gone"},
	}
	metadata.works["10.1000/c"] = record.Record{DOI: "10.1000/c", Title: "Citing Work"}
	metadata.fail["10.1000/gone"] = fmt.Errorf("%w: 10.1000/gone", crossref.ErrNotFound)

	if _, err := r.FetchCiting(context.Background(), []string{"10.1000/seed"}); err != nil {
		t.Fatal(err)
	}
	summary, err := r.FetchMetadata(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// A DOI Crossref has no record for is a skip, not a failure.
	if summary.Succeeded != 1 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 1 succeeded and 1 skipped", summary)
	}
}

func TestFetchRelationsLogsThrottling(t *testing.T) {
	r, relations, _ := newTestRunner(t)
	var log bytes.Buffer
	r.Log = &log
	relations.citing["10.1000/ok"] = []opencitations.Relation{{CitationURI: "ci/1", OtherEntity: "c1"}}
	relations.fail["10.1000/slow"] = fmt.Errorf("%w: status 429", opencitations.ErrRateLimited)

	summary, err := r.FetchCiting(context.Background(), []string{"10.1000/ok", "10.1000/slow"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 succeeded and 1 failed", summary)
	}
	if !strings.Contains(log.String(), "throttled") {
		t.Errorf("log = %q, want throttling marked", log.String())
	}
}

func TestMatchPhase(t *testing.T) {
	r, relations, metadata := newTestRunner(t)
	relations.citing["10.1000/seed"] = []opencitations.Relation{
		{CitationURI: "ci/1", OtherEntity: "https://doi.org/10.1000/c"},
	}
	metadata.works["10.1000/c"] = record.Record{DOI: "10.1000/c", Title: "Citing Work"}
	metadata.refs["10.1000/c"] = []string{
		"Roe J (2020) 10.1000/a",
		"Doe J (2019) 10.1000/z",
	}
	corpusPath := writeCorpus(t, "10.1000/a", "10.1000/b")

	ctx := context.Background()
	if _, err := r.FetchCiting(ctx, []string{"10.1000/seed"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.FetchMetadata(ctx); err != nil {
		t.Fatal(err)
	}
	summary, err := r.Match(ctx, corpusPath)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Succeeded != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 edge and 1 unmatched", summary)
	}

	f, err := os.Open(r.artifactPath(EdgesFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("edges.csv has %d rows, want header plus 1", len(rows))
	}
	if rows[1][0] != "10.1000/c" || rows[1][1] != "10.1000/a" {
		t.Errorf("edge row = %v", rows[1])
	}

	unmatched, err := readJSONL[graph.Unmatched](r.artifactPath(UnmatchedFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(unmatched) != 1 || unmatched[0].Entry.DOI != "10.1000/z" {
		t.Errorf("unmatched = %+v", unmatched)
	}

	if _, err := os.Stat(r.artifactPath(RecordTableFile)); err != nil {
		t.Errorf("record table artifact missing: %v", err)
	}
	if _, err := os.Stat(r.artifactPath(RecordDBFile)); err != nil {
		t.Errorf("record database artifact missing: %v", err)
	}
}

func TestRunAllPhases(t *testing.T) {
	r, relations, metadata := newTestRunner(t)
	relations.citing["10.1000/seed"] = []opencitations.Relation{
		{CitationURI: "ci/1", OtherEntity: "https://doi.org/10.1000/c"},
	}
	relations.cited["10.1000/seed"] = []opencitations.Relation{
		{CitationURI: "ci/9", OtherEntity: "https://doi.org/10.1000/q"},
	}
	metadata.works["10.1000/c"] = record.Record{DOI: "10.1000/c"}
	metadata.refs["10.1000/c"] = []string{"Roe J (2020) 10.1000/a"}
	corpusPath := writeCorpus(t, "10.1000/a")

	summaries, err := r.Run(context.Background(), []string{"10.1000/seed", "bad seed"}, corpusPath)
	if err != nil {
		t.Fatal(err)
	}

	if len(summaries) != 5 {
		t.Fatalf("got %d phase summaries, want 5", len(summaries))
	}
	if s := summaries["fetch-citing"]; s.Succeeded != 1 || s.Skipped != 1 {
		t.Errorf("fetch-citing summary = %+v", s)
	}
	if s := summaries["match"]; s.Succeeded != 1 {
		t.Errorf("match summary = %+v", s)
	}
}

func TestFetchCancellationKeepsPartialResults(t *testing.T) {
	r, relations, _ := newTestRunner(t)
	r.Workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	seeds := []string{"10.1000/a", "10.1000/b", "10.1000/c"}
	relations.citing["10.1000/a"] = []opencitations.Relation{{CitationURI: "ci/1", OtherEntity: "e"}}

	// Cancel before dispatch: no new seeds are handed out, but the phase
	// still completes and saves whatever was collected.
	cancel()

	summary, err := r.FetchCiting(ctx, seeds)
	if err != nil {
		t.Fatal(err)
	}
	// The artifact exists even though dispatch stopped early.
	if _, statErr := os.Stat(r.citingPath()); statErr != nil {
		t.Errorf("citing artifact missing after cancellation: %v", statErr)
	}
	if summary.Total() > len(seeds) {
		t.Errorf("summary counted more items than seeds: %+v", summary)
	}
}
