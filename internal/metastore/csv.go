package metastore

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// recordTableHeader is the column layout of the per-identifier record
// table consumed by downstream bibliographic tooling.
var recordTableHeader = []string{
	"primary_id", "id", "title", "author", "pub_date", "venue",
	"volume", "issue", "page", "type", "publisher", "editor",
}

// ExportCSV writes the record table to w, one row per stored identifier,
// sorted by DOI. Absent fields are empty cells.
func (s *Store) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordTableHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range s.All() {
		row := []string{
			rec.DOI,
			rec.DOI,
			rec.Title,
			strings.Join(rec.Authors, "; "),
			rec.Created,
			rec.Venue,
			rec.Volume,
			rec.Issue,
			rec.Page,
			rec.Type,
			rec.Publisher,
			rec.Editor,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %s: %w", rec.DOI, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
