package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/db"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Surreal reads a source collection stored as a SurrealDB table.
type Surreal struct {
	client *db.Client
	table  string
	owned  bool
	logger *slog.Logger
	now    func() time.Time

	// keys maps fetched document ids to their native record keys.
	mu   sync.Mutex
	keys map[string]any
}

// Compile-time check that Surreal implements Repository.
var _ Repository = (*Surreal)(nil)

// NewSurreal wraps an existing client. Close does not close a client it does not own.
func NewSurreal(ctx context.Context, client *db.Client, table string, logger *slog.Logger) (*Surreal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := client.InitSourceTable(ctx, table); err != nil {
		return nil, err
	}
	return &Surreal{
		client: client,
		table:  table,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		keys:   make(map[string]any),
	}, nil
}

// FindUnprocessed returns up to limit unprocessed documents.
// Records that cannot be decoded are logged and skipped.
func (s *Surreal) FindUnprocessed(ctx context.Context, limit int) ([]models.RawDocument, error) {
	rows, err := s.client.QueryUnprocessed(ctx, s.table, limit)
	if err != nil {
		return nil, err
	}

	docs := make([]models.RawDocument, 0, len(rows))
	for _, row := range rows {
		key, err := normalizeRecordID(row)
		if err != nil {
			s.logger.Warn("skipping source record", "table", s.table, "error", err)
			continue
		}
		doc, err := models.RawDocumentFromMap(row)
		if err != nil {
			s.logger.Warn("skipping source record", "table", s.table, "error", err)
			continue
		}
		if key != nil {
			s.rememberKey(doc.ID, key)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// MarkProcessed flags a document processed.
func (s *Surreal) MarkProcessed(ctx context.Context, docID, file string) error {
	if err := s.client.QueryMarkProcessed(ctx, s.table, s.recordKey(docID), file, s.now()); err != nil {
		return fmt.Errorf("mark %s: %w", docID, err)
	}
	return nil
}

// Insert upserts crawler records keyed by their id.
func (s *Surreal) Insert(ctx context.Context, records []map[string]any) (int, error) {
	for i, record := range records {
		id, err := recordID(record)
		if err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
		fields := make(map[string]any, len(record))
		for k, v := range record {
			if k == "id" || k == "_id" {
				continue
			}
			fields[k] = v
		}
		fields["processed"] = false
		if err := s.client.QueryInsertDocument(ctx, s.table, id, fields); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

// Close closes the client when this repository opened it.
func (s *Surreal) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Close(ctx)
}

func (s *Surreal) rememberKey(docID string, key any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[string]any)
	}
	s.keys[docID] = key
}

// recordKey returns the native key of a fetched document. Ids that were never
// fetched are used as string keys.
func (s *Surreal) recordKey(docID string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := s.keys[docID]; ok {
		return key
	}
	return docID
}

// normalizeRecordID replaces a RecordID "id" field with its key as a string
// and returns the key as stored. It returns nil when the row has no RecordID.
func normalizeRecordID(row map[string]any) (any, error) {
	var rid surrealmodels.RecordID
	switch v := row["id"].(type) {
	case surrealmodels.RecordID:
		rid = v
	case *surrealmodels.RecordID:
		if v == nil {
			return nil, fmt.Errorf("record has nil id")
		}
		rid = *v
	default:
		return nil, nil
	}
	key, err := models.RecordIDString(rid)
	if err != nil {
		return nil, err
	}
	row["id"] = key
	return rid.ID, nil
}
