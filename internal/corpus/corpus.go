// Package corpus loads the set of identifiers considered valid match
// targets for a run.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/dimarzo/citegraph/internal/doi"
)

// Corpus is an immutable set of canonical DOIs loaded once per run.
type Corpus struct {
	ids     map[string]struct{}
	skipped int
}

// Load reads a corpus from a CSV file with an "id" column. Values may carry
// a doi:-style prefix; each is canonicalized before insertion. Rows whose
// id does not canonicalize are skipped and counted, never fatal.
func Load(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses corpus CSV data from r. See Load.
func Read(r io.Reader) (Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Corpus{}, fmt.Errorf("reading corpus header: %w", err)
	}

	idCol := -1
	for i, name := range header {
		if name == "id" {
			idCol = i
			break
		}
	}
	if idCol == -1 {
		return Corpus{}, fmt.Errorf("corpus CSV has no %q column", "id")
	}

	c := Corpus{ids: make(map[string]struct{})}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Corpus{}, fmt.Errorf("reading corpus row: %w", err)
		}
		if idCol >= len(row) {
			c.skipped++
			continue
		}

		canon, err := doi.Canonicalize(row[idCol])
		if err != nil {
			c.skipped++
			continue
		}
		c.ids[canon] = struct{}{}
	}

	return c, nil
}

// FromIDs builds a corpus from canonical-or-raw DOI strings, skipping
// malformed entries. Useful for tests and in-process callers.
func FromIDs(ids ...string) Corpus {
	c := Corpus{ids: make(map[string]struct{})}
	for _, id := range ids {
		canon, err := doi.Canonicalize(id)
		if err != nil {
			c.skipped++
			continue
		}
		c.ids[canon] = struct{}{}
	}
	return c
}

// Contains reports membership of id (any accepted DOI form).
func (c Corpus) Contains(id string) bool {
	canon, err := doi.Canonicalize(id)
	if err != nil {
		return false
	}
	_, ok := c.ids[canon]
	return ok
}

// Len returns the number of identifiers in the corpus.
func (c Corpus) Len() int {
	return len(c.ids)
}

// Skipped returns the number of rows dropped as malformed during load.
func (c Corpus) Skipped() int {
	return c.skipped
}
