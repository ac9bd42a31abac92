// jsonfile.go - Flat JSON array expense store

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONFileStore persists expenses as a flat, append-only JSON array at a
// fixed file path. Every mutation loads the whole file and rewrites it
// wholesale; there is no partial write and no concurrent-writer protection
// beyond the in-process mutex.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONFileStore opens (creating if needed) the data file at path
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write([]ExpenseRecord{}); err != nil {
			return nil, fmt.Errorf("failed to create data file: %w", err)
		}
	}
	return s, nil
}

// Load returns all records sorted by date descending. Optional fields
// missing from older files are backfilled with defaults for backward
// compatibility.
func (s *JSONFileStore) Load() ([]ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONFileStore) load() ([]ExpenseRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	records := []ExpenseRecord{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse data file: %w", err)
		}
	}

	for i := range records {
		records[i].applyDefaults()
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})

	return records, nil
}

func (s *JSONFileStore) write(records []ExpenseRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	return nil
}

// Add persists a new record, minting ID and timestamp
func (s *JSONFileStore) Add(rec ExpenseRecord) (ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return ExpenseRecord{}, err
	}

	rec.ID = uuid.New().String()
	rec.Timestamp = time.Now()
	rec.applyDefaults()

	records = append(records, rec)
	if err := s.write(records); err != nil {
		return ExpenseRecord{}, err
	}
	return rec, nil
}

// Update replaces the record with the given ID
func (s *JSONFileStore) Update(id string, rec ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	for i := range records {
		if records[i].ID == id {
			rec.ID = id
			rec.Timestamp = records[i].Timestamp
			rec.applyDefaults()
			records[i] = rec
			return s.write(records)
		}
	}
	return ErrNotFound
}

// Delete removes the record with the given ID
func (s *JSONFileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	for i := range records {
		if records[i].ID == id {
			records = append(records[:i], records[i+1:]...)
			return s.write(records)
		}
	}
	return ErrNotFound
}

// Clear removes all records
func (s *JSONFileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write([]ExpenseRecord{})
}
