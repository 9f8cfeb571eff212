package metastore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const recordsDDL = `CREATE TABLE IF NOT EXISTS records (
  doi TEXT PRIMARY KEY,
  title TEXT,
  publisher TEXT,
  issue TEXT,
  volume TEXT,
  page TEXT,
  type TEXT,
  editor TEXT,
  venue TEXT,
  authors TEXT,
  created TEXT
)`

const referencesDDL = `CREATE TABLE IF NOT EXISTS "references" (
  doi TEXT NOT NULL,
  position INTEGER NOT NULL,
  raw TEXT NOT NULL,
  PRIMARY KEY (doi, position)
)`

// ExportSQLite writes the store's records and raw references into a SQLite
// database at path, replacing any rows for the same DOI. The database is an
// output artifact for downstream querying, not the source of truth.
func (s *Store) ExportSQLite(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	for _, ddl := range []string{recordsDDL, referencesDDL} {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	insertRec, err := tx.Prepare(`INSERT OR REPLACE INTO records
		(doi, title, publisher, issue, volume, page, type, editor, venue, authors, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing records insert: %w", err)
	}
	defer insertRec.Close()

	insertRef, err := tx.Prepare(`INSERT OR REPLACE INTO "references"
		(doi, position, raw) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing references insert: %w", err)
	}
	defer insertRef.Close()

	for _, rec := range s.All() {
		_, err := insertRec.Exec(rec.DOI, rec.Title, rec.Publisher, rec.Issue,
			rec.Volume, rec.Page, rec.Type, rec.Editor, rec.Venue,
			strings.Join(rec.Authors, "; "), rec.Created)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.DOI, err)
		}
		for i, raw := range rec.References {
			if _, err := insertRef.Exec(rec.DOI, i, raw); err != nil {
				return fmt.Errorf("inserting reference %s[%d]: %w", rec.DOI, i, err)
			}
		}
	}

	return tx.Commit()
}
