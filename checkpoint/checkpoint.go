// Package checkpoint persists category records as JSON snapshots.
//
// Every write replaces the whole file: the records are encoded into a
// temporary file in the target directory which is then renamed over the
// destination, so readers only ever see a complete previous or complete new
// snapshot.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/purplecofe/poedb-scraper/models"
)

// Store writes progress checkpoints and final outputs.
type Store struct {
	// Dir holds the <category>_progress.json files.
	Dir string
}

// New returns a Store rooted at dir ("" means the working directory).
func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir}
}

// ProgressPath returns the progress checkpoint path for a category display
// name, e.g. "Rings" -> <dir>/rings_progress.json.
func (s *Store) ProgressPath(categoryName string) string {
	return filepath.Join(s.Dir, strings.ToLower(categoryName)+"_progress.json")
}

// Save writes the raw records accumulated so far.
func (s *Store) Save(path string, records []models.RawItemRecord) error {
	if records == nil {
		records = []models.RawItemRecord{}
	}
	return writeJSON(path, records)
}

// SaveFinal projects records to their output shape and writes them.
func (s *Store) SaveFinal(path string, records []models.RawItemRecord) error {
	return writeJSON(path, models.FormatAll(records))
}

// Load reads a progress checkpoint written by Save. A missing file is
// reported with an error wrapping os.ErrNotExist.
func (s *Store) Load(path string) ([]models.RawItemRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	var records []models.RawItemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeCheckpoint,
			fmt.Sprintf("checkpoint %s is malformed", path), err)
	}
	return records, nil
}

func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.NewScrapeError(models.ErrCodeCheckpoint, "create output directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return models.NewScrapeError(models.ErrCodeCheckpoint, "create temp file for "+path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return models.NewScrapeError(models.ErrCodeCheckpoint, "encode "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return models.NewScrapeError(models.ErrCodeCheckpoint, "flush "+path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return models.NewScrapeError(models.ErrCodeCheckpoint, "chmod "+path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return models.NewScrapeError(models.ErrCodeCheckpoint, "replace "+path, err)
	}
	return nil
}
