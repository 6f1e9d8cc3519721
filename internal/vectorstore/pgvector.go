package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/db"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// PGVector stores vectors in a Postgres table using the pgvector extension.
type PGVector struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
}

// Compile-time check that PGVector implements Store.
var _ Store = (*PGVector)(nil)

// OpenPGVector connects to Postgres and verifies the connection.
func OpenPGVector(ctx context.Context, connStr, table string, dimension int) (*PGVector, error) {
	if err := db.ValidateTable(table); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PGVector{pool: pool, table: table, dimension: dimension}, nil
}

func (p *PGVector) Init(ctx context.Context, recreate bool) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}
	if recreate {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", p.table)); err != nil {
			return fmt.Errorf("drop table %s: %w", p.table, err)
		}
	}

	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id           uuid PRIMARY KEY,
			content      text NOT NULL,
			content_type text NOT NULL,
			doc_id       text NOT NULL,
			source       text NOT NULL,
			processed_at timestamptz,
			embedding    vector(%[2]d) NOT NULL
		)`, p.table, p.dimension)
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}

	index := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx ON %[1]s USING hnsw (embedding vector_cosine_ops)", p.table)
	if _, err := p.pool.Exec(ctx, index); err != nil {
		return fmt.Errorf("create index on %s: %w", p.table, err)
	}
	return nil
}

func (p *PGVector) Upsert(ctx context.Context, chunks []models.ProcessedChunk) (int, error) {
	records := toRecords(chunks, p.dimension)
	if len(records) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, content_type, doc_id, source, processed_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			content_type = EXCLUDED.content_type,
			doc_id = EXCLUDED.doc_id,
			source = EXCLUDED.source,
			processed_at = EXCLUDED.processed_at,
			embedding = EXCLUDED.embedding`, p.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query,
			uuid.MustParse(r.ID),
			r.Payload.Content,
			string(r.Payload.ContentType),
			r.Payload.Metadata.DocID,
			r.Payload.Metadata.Source,
			r.Payload.Metadata.ProcessedAt,
			pgvector.NewVector(r.Vector),
		)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, p.wrap("upsert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

func (p *PGVector) Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]models.SearchResult, error) {
	if err := checkQuery(vector, p.dimension, limit); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT content, content_type, doc_id, source, processed_at,
		       1-(embedding <=> $1) AS score
		FROM %s
		WHERE 1-(embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`, p.table)

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vector), threshold, limit)
	if err != nil {
		return nil, p.wrap("search", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var (
			r           models.SearchResult
			contentType string
		)
		if err := rows.Scan(&r.Content, &contentType, &r.Metadata.DocID, &r.Metadata.Source,
			&r.Metadata.ProcessedAt, &r.Score); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.ContentType = models.ContentType(contentType)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, p.wrap("search", err)
	}
	return finalize(results, limit, threshold), nil
}

func (p *PGVector) Count(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", p.table)).Scan(&n)
	if err != nil {
		return 0, p.wrap("count", err)
	}
	return n, nil
}

func (p *PGVector) Close(context.Context) error {
	p.pool.Close()
	return nil
}

func (p *PGVector) wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%s %s: %w", op, p.table, ErrCollectionNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, p.table, err)
}
