package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// =============================================================================
// SOURCE DOCUMENTS
// =============================================================================

// InitSourceTable defines a source document table.
func (c *Client) InitSourceTable(ctx context.Context, table string) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	if err := c.exec(ctx, SourceSchemaSQL(table), nil); err != nil {
		return fmt.Errorf("init source table %s: %w", table, err)
	}
	return nil
}

// QueryUnprocessed returns up to limit records whose processed flag is not true.
// A limit of zero or less returns every such record.
// Records come back as generic maps because crawler output has no fixed shape.
func (c *Client) QueryUnprocessed(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT * FROM %s WHERE processed != true", table)
	vars := map[string]any{}
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := surrealdb.Query[[]map[string]any](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", wrapQueryError(err))
	}
	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []map[string]any{}, nil
}

// QueryMarkProcessed flags a record processed and records its output file.
// key must have the type the record was stored with: table:5 and table:"5"
// are different records.
func (c *Client) QueryMarkProcessed(ctx context.Context, table string, key any, file string, at time.Time) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	results, err := surrealdb.Query[[]map[string]any](ctx, c.db, `
		UPDATE $rid MERGE {
			processed: true,
			processed_at: $at,
			processed_file: $file
		} RETURN id
	`, map[string]any{
		"rid":  surrealmodels.NewRecordID(table, key),
		"at":   at,
		"file": file,
	})
	if err != nil {
		return fmt.Errorf("mark processed: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("mark processed %s:%v: %w", table, key, ErrNotFound)
	}
	return nil
}

// QueryInsertDocument creates or replaces a source record.
func (c *Client) QueryInsertDocument(ctx context.Context, table, id string, fields map[string]any) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	err := c.exec(ctx, "UPSERT $rid CONTENT $data", map[string]any{
		"rid":  surrealmodels.NewRecordID(table, id),
		"data": fields,
	})
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// =============================================================================
// VECTORS
// =============================================================================

// VectorRow is the stored shape of a vector record.
type VectorRow struct {
	Content     string               `json:"content"`
	ContentType string               `json:"content_type"`
	Metadata    models.ChunkMetadata `json:"metadata"`
	Embedding   []float32            `json:"embedding,omitempty"`
	Score       float64              `json:"score,omitempty"`
}

// InitVectorTable defines a vector table and its HNSW index.
func (c *Client) InitVectorTable(ctx context.Context, table string, dimension int) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	if err := c.exec(ctx, VectorSchemaSQL(table, dimension), nil); err != nil {
		return fmt.Errorf("init vector table %s: %w", table, err)
	}
	return nil
}

// RemoveTable drops a table and its indexes. Missing tables are not an error.
func (c *Client) RemoveTable(ctx context.Context, table string) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	if err := c.exec(ctx, fmt.Sprintf("REMOVE TABLE IF EXISTS %s", table), nil); err != nil {
		return fmt.Errorf("remove table %s: %w", table, err)
	}
	return nil
}

// QueryUpsertVectors writes rows keyed by id in a single transaction.
func (c *Client) QueryUpsertVectors(ctx context.Context, table string, ids []string, rows []VectorRow) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	if len(ids) != len(rows) {
		return fmt.Errorf("upsert vectors: %d ids for %d rows", len(ids), len(rows))
	}

	records := make([]map[string]any, len(rows))
	for i, row := range rows {
		records[i] = map[string]any{
			"rid": surrealmodels.NewRecordID(table, ids[i]),
			"data": map[string]any{
				"content":      row.Content,
				"content_type": row.ContentType,
				"metadata":     row.Metadata,
				"embedding":    row.Embedding,
			},
		}
	}

	err := c.exec(ctx, `
		BEGIN TRANSACTION;
		FOR $r IN $records { UPSERT $r.rid CONTENT $r.data; };
		COMMIT TRANSACTION;
	`, map[string]any{"records": records})
	if err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// QuerySearchVectors returns the limit nearest rows by cosine similarity, best first.
func (c *Client) QuerySearchVectors(ctx context.Context, table string, embedding []float32, limit int) ([]VectorRow, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	// HNSW KNN with ef=40, matching the index build parameters.
	sql := fmt.Sprintf(`
		SELECT content, content_type, metadata,
			vector::similarity::cosine(embedding, $emb) AS score
		FROM %s
		WHERE embedding <|%d,40|> $emb
		ORDER BY score DESC
	`, table, limit)

	results, err := surrealdb.Query[[]VectorRow](ctx, c.db, sql, map[string]any{"emb": embedding})
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", wrapQueryError(err))
	}
	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []VectorRow{}, nil
}

// QueryCount returns the number of records in a table.
func (c *Client) QueryCount(ctx context.Context, table string) (int, error) {
	if err := ValidateTable(table); err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("SELECT count() AS count FROM %s GROUP ALL", table)
	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, sql, nil)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}
