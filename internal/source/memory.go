package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Memory is an in-process repository. Documents are returned in insertion order.
type Memory struct {
	mu    sync.Mutex
	order []string
	docs  map[string]models.RawDocument
	now   func() time.Time
}

// Compile-time check that Memory implements Repository.
var _ Repository = (*Memory)(nil)

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]models.RawDocument),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Add stores documents directly, replacing any with the same id.
func (m *Memory) Add(docs ...models.RawDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		if _, exists := m.docs[d.ID]; !exists {
			m.order = append(m.order, d.ID)
		}
		m.docs[d.ID] = d
	}
}

// Get returns a document by id.
func (m *Memory) Get(id string) (models.RawDocument, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	return d, ok
}

// FindUnprocessed returns up to limit unprocessed documents in insertion order.
func (m *Memory) FindUnprocessed(_ context.Context, limit int) ([]models.RawDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.RawDocument{}
	for _, id := range m.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		if d := m.docs[id]; !d.Processed {
			out = append(out, d)
		}
	}
	return out, nil
}

// MarkProcessed flags a document as processed.
func (m *Memory) MarkProcessed(_ context.Context, docID, file string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[docID]
	if !ok {
		return fmt.Errorf("mark %s: %w", docID, ErrNotFound)
	}
	at := m.now()
	d.Processed = true
	d.ProcessedAt = &at
	d.ProcessedFile = file
	m.docs[docID] = d
	return nil
}

// Insert decodes crawler records and stores them.
func (m *Memory) Insert(_ context.Context, records []map[string]any) (int, error) {
	docs := make([]models.RawDocument, 0, len(records))
	for i, r := range records {
		d, err := models.RawDocumentFromMap(r)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	m.Add(docs...)
	return len(docs), nil
}

// Close is a no-op.
func (m *Memory) Close(context.Context) error {
	return nil
}
