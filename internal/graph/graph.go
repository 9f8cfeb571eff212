// Package graph reconciles candidate citation edges against a known corpus
// and merges relation rows gathered in both directions.
package graph

import (
	"sort"

	"github.com/dimarzo/citegraph/internal/corpus"
	"github.com/dimarzo/citegraph/internal/refparse"
)

// Edge is a directed citation relation between two canonical DOIs.
type Edge struct {
	Citing string `json:"citing"`
	Cited  string `json:"cited"`
}

// Set is a collection of edges deduplicated by (citing, cited) pair.
// Insertion order is irrelevant; Edges returns a sorted slice.
type Set struct {
	edges map[Edge]struct{}
}

// NewSet creates an empty edge set.
func NewSet() *Set {
	return &Set{edges: make(map[Edge]struct{})}
}

// Add inserts an edge; repeated discovery of the same pair is a no-op.
func (s *Set) Add(e Edge) {
	s.edges[e] = struct{}{}
}

// Contains reports whether the set holds the edge.
func (s *Set) Contains(e Edge) bool {
	_, ok := s.edges[e]
	return ok
}

// Len returns the number of distinct edges.
func (s *Set) Len() int {
	return len(s.edges)
}

// Edges returns the edges sorted by (citing, cited) for deterministic output.
func (s *Set) Edges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for e := range s.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Citing != out[j].Citing {
			return out[i].Citing < out[j].Citing
		}
		return out[i].Cited < out[j].Cited
	})
	return out
}

// CitingRefs pairs a citing identifier with its parsed references.
type CitingRefs struct {
	Citing string           `json:"citing"`
	Refs   []refparse.Entry `json:"refs"`
}

// Unmatched is a reference that could not be verified against the corpus;
// it is retained for manual resolution.
type Unmatched struct {
	Citing string         `json:"citing"`
	Entry  refparse.Entry `json:"entry"`
	Reason string         `json:"reason"` // "no_doi" or "not_in_corpus"
}

// Result holds the verified edge set and the references left over.
type Result struct {
	Edges     *Set
	Unmatched []Unmatched
}

// Match verifies candidate references against the known corpus. A reference
// carrying a DOI found in the corpus yields the edge (citing, DOI); a DOI
// outside the corpus, or a title-only reference, is recorded as unmatched.
// The operation is idempotent and independent of input order.
func Match(c corpus.Corpus, candidates []CitingRefs) Result {
	result := Result{Edges: NewSet()}

	for _, cand := range candidates {
		for _, entry := range cand.Refs {
			if entry.DOI == "" {
				result.Unmatched = append(result.Unmatched, Unmatched{
					Citing: cand.Citing,
					Entry:  entry,
					Reason: "no_doi",
				})
				continue
			}
			if !c.Contains(entry.DOI) {
				result.Unmatched = append(result.Unmatched, Unmatched{
					Citing: cand.Citing,
					Entry:  entry,
					Reason: "not_in_corpus",
				})
				continue
			}
			result.Edges.Add(Edge{Citing: cand.Citing, Cited: entry.DOI})
		}
	}

	return result
}

// RelationRow is one relation fetched for a seed in one direction.
type RelationRow struct {
	Seed        string `json:"seed"`
	CitationURI string `json:"citation"`
	Entity      string `json:"entity"`
}

// MergedRow joins the citing-direction and cited-direction results for one
// seed. A row present on only one side keeps that side's columns and leaves
// the other side's empty.
type MergedRow struct {
	Seed              string `json:"seed"`
	CitingCitationURI string `json:"citing_citation,omitempty"`
	CitingEntity      string `json:"citing_entity,omitempty"`
	CitedCitationURI  string `json:"cited_citation,omitempty"`
	CitedEntity       string `json:"cited_entity,omitempty"`
}

// MergeRelationRows performs a full outer join of citing and cited rows
// keyed on the seed. A seed with rows on both sides emits the per-seed
// cross product, m×n rows; a seed present on only one side keeps that
// side's columns and leaves the other side's empty.
func MergeRelationRows(citing, cited []RelationRow) []MergedRow {
	bySeedCiting := groupBySeed(citing)
	bySeedCited := groupBySeed(cited)

	seeds := make(map[string]struct{})
	for s := range bySeedCiting {
		seeds[s] = struct{}{}
	}
	for s := range bySeedCited {
		seeds[s] = struct{}{}
	}

	ordered := make([]string, 0, len(seeds))
	for s := range seeds {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)

	var merged []MergedRow
	for _, seed := range ordered {
		citingRows := bySeedCiting[seed]
		citedRows := bySeedCited[seed]

		switch {
		case len(citingRows) == 0:
			for _, cd := range citedRows {
				merged = append(merged, MergedRow{
					Seed:             seed,
					CitedCitationURI: cd.CitationURI,
					CitedEntity:      cd.Entity,
				})
			}
		case len(citedRows) == 0:
			for _, cg := range citingRows {
				merged = append(merged, MergedRow{
					Seed:              seed,
					CitingCitationURI: cg.CitationURI,
					CitingEntity:      cg.Entity,
				})
			}
		default:
			for _, cg := range citingRows {
				for _, cd := range citedRows {
					merged = append(merged, MergedRow{
						Seed:              seed,
						CitingCitationURI: cg.CitationURI,
						CitingEntity:      cg.Entity,
						CitedCitationURI:  cd.CitationURI,
						CitedEntity:       cd.Entity,
					})
				}
			}
		}
	}

	return merged
}

func groupBySeed(rows []RelationRow) map[string][]RelationRow {
	grouped := make(map[string][]RelationRow)
	for _, r := range rows {
		grouped[r.Seed] = append(grouped[r.Seed], r)
	}
	return grouped
}
