// internal/storage/record/memory.go
package record

import (
	"context"
	"sort"
	"sync"

	"github.com/futusense/futusense/internal/core"
)

// MemoryStore is an in-memory record store. It backs the API between
// runs; the archive tree is the durable copy.
type MemoryStore struct {
	records map[string]core.FusionRecord // key: symbolID + "/" + date
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates an in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]core.FusionRecord),
		maxSize: maxSize,
	}
}

func key(symbolID, date string) string {
	return symbolID + "/" + date
}

// Save upserts a record under its (symbol, date) key.
func (m *MemoryStore) Save(ctx context.Context, rec core.FusionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key(rec.Symbol.ID, rec.Date)] = rec

	// Trim oldest dates when over capacity.
	if m.maxSize > 0 && len(m.records) > m.maxSize {
		keys := make([]string, 0, len(m.records))
		for k := range m.records {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return m.records[keys[i]].Date < m.records[keys[j]].Date
		})
		for _, k := range keys[:len(m.records)-m.maxSize] {
			delete(m.records, k)
		}
	}
	return nil
}

// Get retrieves the record for a symbol on a date.
func (m *MemoryStore) Get(ctx context.Context, symbolID, date string) (*core.FusionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key(symbolID, date)]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	return &rec, nil
}

// Latest retrieves the most recent record for a symbol.
func (m *MemoryStore) Latest(ctx context.Context, symbolID string) (*core.FusionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *core.FusionRecord
	for _, rec := range m.records {
		if rec.Symbol.ID != symbolID {
			continue
		}
		if best == nil || rec.Date > best.Date {
			r := rec
			best = &r
		}
	}
	if best == nil {
		return nil, core.ErrRecordNotFound
	}
	return best, nil
}

// List returns records matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.FusionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []core.FusionRecord
	for _, rec := range m.records {
		if m.matches(rec, filter) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].Symbol.ID < result[j].Symbol.ID
	})

	// Apply offset and limit
	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	} else if filter.Offset >= len(result) && filter.Offset > 0 {
		return []core.FusionRecord{}, nil
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching records.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if m.matches(rec, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) matches(rec core.FusionRecord, filter ListFilter) bool {
	if filter.Symbol != "" && rec.Symbol.ID != filter.Symbol {
		return false
	}
	if filter.Band != "" && rec.Sentiment.Band != filter.Band {
		return false
	}
	if filter.From != "" && rec.Date < filter.From {
		return false
	}
	if filter.To != "" && rec.Date > filter.To {
		return false
	}
	return true
}
