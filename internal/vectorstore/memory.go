package vectorstore

import (
	"context"
	"sync"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Memory is an in-process store with brute-force cosine search.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	exists    bool
	order     []string
	records   map[string]models.VectorRecord
}

// Compile-time check that Memory implements Store.
var _ Store = (*Memory)(nil)

// NewMemory creates an uninitialized in-memory collection.
func NewMemory(dimension int) *Memory {
	return &Memory{dimension: dimension, records: make(map[string]models.VectorRecord)}
}

func (m *Memory) Init(_ context.Context, recreate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if recreate || !m.exists {
		m.order = nil
		m.records = make(map[string]models.VectorRecord)
	}
	m.exists = true
	return nil
}

func (m *Memory) Upsert(_ context.Context, chunks []models.ProcessedChunk) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists {
		return 0, ErrCollectionNotFound
	}

	records := toRecords(chunks, m.dimension)
	for _, r := range records {
		if _, ok := m.records[r.ID]; !ok {
			m.order = append(m.order, r.ID)
		}
		m.records[r.ID] = r
	}
	return len(records), nil
}

func (m *Memory) Search(_ context.Context, vector []float32, limit int, threshold float64) ([]models.SearchResult, error) {
	if err := checkQuery(vector, m.dimension, limit); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.exists {
		return nil, ErrCollectionNotFound
	}

	results := make([]models.SearchResult, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		results = append(results, r.Payload.ToSearchResult(Cosine(vector, r.Vector)))
	}
	return finalize(results, limit, threshold), nil
}

func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.exists {
		return 0, ErrCollectionNotFound
	}
	return len(m.records), nil
}

func (m *Memory) Close(context.Context) error { return nil }
