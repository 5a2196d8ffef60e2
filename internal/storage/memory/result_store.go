package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// DefaultCapacity bounds how many records a ResultStore keeps.
const DefaultCapacity = 1000

// ResultStore keeps the most recent scrape records in a bounded slice.
type ResultStore struct {
	mu       sync.RWMutex
	records  []scraper.Record
	ids      map[string]struct{}
	capacity int
}

// NewResultStore constructs a ResultStore. capacity <= 0 selects DefaultCapacity.
func NewResultStore(capacity int) *ResultStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ResultStore{
		ids:      make(map[string]struct{}),
		capacity: capacity,
	}
}

// SaveRecord appends a record, evicting the oldest once capacity is reached.
func (s *ResultStore) SaveRecord(_ context.Context, record scraper.Record) error {
	if record.ID == "" {
		return errors.New("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[record.ID]; exists {
		return errors.New("record already exists")
	}
	if len(s.records) == s.capacity {
		delete(s.ids, s.records[0].ID)
		s.records = s.records[1:]
	}
	s.records = append(s.records, record)
	s.ids[record.ID] = struct{}{}
	return nil
}

// ListRecords returns up to limit records, newest first. limit <= 0 returns all.
func (s *ResultStore) ListRecords(_ context.Context, limit int) ([]scraper.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]scraper.Record, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Close is a no-op.
func (s *ResultStore) Close() {}
