package memory

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"spendboard/internal/core"
	"spendboard/internal/ingest"
	"spendboard/internal/sources"
)

// Files looked up in the data directory, in order.
const (
	JSONFile = "spend.json"
	CSVFile  = "spend.csv"
)

//go:embed seed.csv
var seedCSV []byte

// Store serves records from memory. A store built with NewFromDir re-reads
// its directory on every Load so edits show up on the next reload.
type Store struct {
	mu      sync.RWMutex
	dir     string
	records []core.SpendRecord
	fixed   bool
}

// Ensure interface conformance
var (
	_ sources.RecordSource = (*Store)(nil)
	_ sources.RecordWriter = (*Store)(nil)
)

// NewFromRecords returns a store holding a copy of records.
func NewFromRecords(records []core.SpendRecord) *Store {
	return &Store{records: slices.Clone(records), fixed: true}
}

// NewFromDir returns a store backed by dir. When dir is empty or holds
// neither spend.json nor spend.csv the embedded sample dataset is served.
func NewFromDir(dir string) *Store {
	return &Store{dir: dir}
}

// Seed returns the embedded sample dataset.
func Seed() []core.SpendRecord {
	return ingest.ParseText(string(seedCSV))
}

func (s *Store) Name() string {
	if s.fixed {
		return "memory"
	}
	return "memory:" + s.dir
}

func (s *Store) Load(_ context.Context) ([]core.SpendRecord, error) {
	s.mu.RLock()
	if s.fixed {
		defer s.mu.RUnlock()
		return slices.Clone(s.records), nil
	}
	dir := s.dir
	s.mu.RUnlock()
	if dir == "" {
		return Seed(), nil
	}

	for _, name := range []string{JSONFile, CSVFile} {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return ingest.Parse(body), nil
	}
	return Seed(), nil
}

// ReplaceAll swaps the held records and pins the store to them.
func (s *Store) ReplaceAll(_ context.Context, _ string, records []core.SpendRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.Clone(records)
	s.fixed = true
	return 0, nil
}
