// Package storage persists run results as JSON files so a scheduler can
// pick them up after the run completes.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bulkoils/catalog-scraper/internal/models"
)

// ResultStore writes one JSON document per run under a base directory.
type ResultStore struct {
	mu  sync.Mutex
	dir string
}

// NewResultStore creates the base directory if needed.
func NewResultStore(dir string) (*ResultStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("result directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result directory: %w", err)
	}
	return &ResultStore{dir: dir}, nil
}

// Save writes the products for a run. The document is two-space indented
// with non-ASCII text left as UTF-8, and lands atomically via a rename.
func (s *ResultStore) Save(runID string, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if products == nil {
		products = []models.Product{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("encode products for run %s: %w", runID, err)
	}

	path := s.Path(runID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Load reads a run's products back.
func (s *ResultStore) Load(runID string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(runID))
	if err != nil {
		return nil, err
	}
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode results for run %s: %w", runID, err)
	}
	return products, nil
}

// Path returns where a run's result file lives.
func (s *ResultStore) Path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}
