package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names under the artifacts directory.
const (
	CitingFile      = "citing.jsonl"
	CitedFile       = "cited.jsonl"
	MergedFile      = "merged.jsonl"
	RecordsFile     = "records.jsonl"
	ReferencesFile  = "references.jsonl"
	EdgesFile       = "edges.csv"
	UnmatchedFile   = "unmatched.jsonl"
	RecordTableFile = "records.csv"
	RecordDBFile    = "records.db"
)

// maxLineCapacity is the scanner buffer limit for artifact lines (1MB).
const maxLineCapacity = 1024 * 1024

func (r *Runner) artifactPath(name string) string {
	return filepath.Join(r.ArtifactsDir, name)
}

func (r *Runner) citingPath() string     { return r.artifactPath(CitingFile) }
func (r *Runner) citedPath() string      { return r.artifactPath(CitedFile) }
func (r *Runner) mergedPath() string     { return r.artifactPath(MergedFile) }
func (r *Runner) recordsPath() string    { return r.artifactPath(RecordsFile) }
func (r *Runner) referencesPath() string { return r.artifactPath(ReferencesFile) }

// writeJSONL writes one JSON document per line, atomically via a temp file
// and rename.
func writeJSONL[T any](path string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			tmpFile.Close()
			return fmt.Errorf("encoding item %d: %w", i, err)
		}
		if _, err := tmpFile.Write(append(data, '\n')); err != nil {
			tmpFile.Close()
			return fmt.Errorf("writing item %d: %w", i, err)
		}
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// readJSONL reads one JSON document per line. A missing file yields an
// empty slice, matching a phase that has not produced output yet.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, maxLineCapacity)
	scanner.Buffer(buf, maxLineCapacity)

	var items []T
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, lineNum, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return items, nil
}
