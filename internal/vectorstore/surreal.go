package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/db"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Surreal stores vectors in a SurrealDB table with an HNSW cosine index.
type Surreal struct {
	client    *db.Client
	table     string
	dimension int
	owned     bool
}

// Compile-time check that Surreal implements Store.
var _ Store = (*Surreal)(nil)

// NewSurreal wraps an existing client. Close leaves the client open.
func NewSurreal(client *db.Client, table string, dimension int) (*Surreal, error) {
	if err := db.ValidateTable(table); err != nil {
		return nil, err
	}
	return &Surreal{client: client, table: table, dimension: dimension}, nil
}

// OpenSurreal connects to SurrealDB and owns the connection.
func OpenSurreal(ctx context.Context, cfg db.Config, table string, dimension int, logger *slog.Logger) (*Surreal, error) {
	client, err := db.NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open surrealdb: %w", err)
	}
	s, err := NewSurreal(client, table, dimension)
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	s.owned = true
	return s, nil
}

func (s *Surreal) Init(ctx context.Context, recreate bool) error {
	if recreate {
		if err := s.client.RemoveTable(ctx, s.table); err != nil {
			return err
		}
	}
	return s.client.InitVectorTable(ctx, s.table, s.dimension)
}

func (s *Surreal) Upsert(ctx context.Context, chunks []models.ProcessedChunk) (int, error) {
	records := toRecords(chunks, s.dimension)
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]string, len(records))
	rows := make([]db.VectorRow, len(records))
	for i, r := range records {
		ids[i] = r.ID
		rows[i] = db.VectorRow{
			Content:     r.Payload.Content,
			ContentType: string(r.Payload.ContentType),
			Metadata:    r.Payload.Metadata,
			Embedding:   r.Vector,
		}
	}
	if err := s.client.QueryUpsertVectors(ctx, s.table, ids, rows); err != nil {
		return 0, s.wrap(err)
	}
	return len(records), nil
}

func (s *Surreal) Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]models.SearchResult, error) {
	if err := checkQuery(vector, s.dimension, limit); err != nil {
		return nil, err
	}
	rows, err := s.client.QuerySearchVectors(ctx, s.table, vector, limit)
	if err != nil {
		return nil, s.wrap(err)
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, models.SearchResult{
			Content:     r.Content,
			ContentType: models.ContentType(r.ContentType),
			Metadata:    r.Metadata,
			Score:       r.Score,
		})
	}
	return finalize(results, limit, threshold), nil
}

func (s *Surreal) Count(ctx context.Context) (int, error) {
	n, err := s.client.QueryCount(ctx, s.table)
	if err != nil {
		return 0, s.wrap(err)
	}
	return n, nil
}

func (s *Surreal) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Close(ctx)
}

func (s *Surreal) wrap(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", s.table, ErrCollectionNotFound, err)
	}
	return err
}
