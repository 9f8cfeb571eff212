// Package metastore holds the per-identifier bibliographic records built up
// during a run. The store is safe for concurrent use and persists between
// pipeline phases as JSONL, with SQLite and CSV export for downstream use.
package metastore

import (
	"sort"
	"sync"

	"github.com/dimarzo/citegraph/internal/doi"
	"github.com/dimarzo/citegraph/internal/record"
)

// Store maps canonical DOIs to bibliographic records. Records are created
// on first upsert and completed field-by-field on later upserts; an empty
// incoming field never erases existing data.
type Store struct {
	mu      sync.RWMutex
	records map[string]record.Record
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: make(map[string]record.Record)}
}

// Upsert merges rec into the store under its canonicalized DOI.
// Returns doi.ErrMalformed when the record's DOI does not canonicalize.
func (s *Store) Upsert(rec record.Record) error {
	key, err := doi.Canonicalize(rec.DOI)
	if err != nil {
		return err
	}
	rec.DOI = key

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[key]
	if !ok {
		s.records[key] = rec
		return nil
	}
	record.Merge(&existing, rec)
	s.records[key] = existing
	return nil
}

// Get returns the record for a DOI (any accepted form) and whether it exists.
func (s *Store) Get(id string) (record.Record, bool) {
	key, err := doi.Canonicalize(id)
	if err != nil {
		return record.Record{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// Known returns the set of canonical identifiers currently in the store.
func (s *Store) Known() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	known := make(map[string]struct{}, len(s.records))
	for k := range s.records {
		known[k] = struct{}{}
	}
	return known
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns the records sorted by DOI for deterministic output.
func (s *Store) All() []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record.Record, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].DOI < recs[j].DOI })
	return recs
}
