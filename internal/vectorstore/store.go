// Package vectorstore owns the similarity-search collection: lifecycle, bulk upsert and
// nearest-neighbor search with a score floor. All backends use cosine similarity.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/db"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "content_vectors"

var (
	// ErrCollectionNotFound is returned by Upsert, Search and Count before Init.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionMismatch is returned when a query vector has the wrong length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Store is a vector collection of fixed dimension.
type Store interface {
	// Init creates the collection. With recreate it drops any existing collection first;
	// without it an existing collection is left untouched.
	Init(ctx context.Context, recreate bool) error

	// Upsert stores chunks keyed by PointID. Chunks without an embedding of the
	// collection's dimension are skipped. It returns how many were stored.
	Upsert(ctx context.Context, chunks []models.ProcessedChunk) (int, error)

	// Search returns at most limit results with score >= threshold, best first.
	Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]models.SearchResult, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	Close(ctx context.Context) error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory    Backend = "memory"
	BackendQdrant    Backend = "qdrant"
	BackendSurrealDB Backend = "surrealdb"
	BackendPGVector  Backend = "pgvector"
)

// Config selects and configures a backend.
type Config struct {
	Backend    Backend
	Collection string
	Dimension  int

	QdrantURL    string
	QdrantAPIKey string
	PostgresURL  string
	Surreal      db.Config

	Logger *slog.Logger
}

// New opens the configured backend. Init must still be called before use.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", cfg.Dimension)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(cfg.Dimension), nil
	case BackendQdrant:
		return NewQdrant(QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
			Dimension:  cfg.Dimension,
		}), nil
	case BackendSurrealDB:
		return OpenSurreal(ctx, cfg.Surreal, cfg.Collection, cfg.Dimension, cfg.Logger)
	case BackendPGVector:
		return OpenPGVector(ctx, cfg.PostgresURL, cfg.Collection, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown vector backend: %q", cfg.Backend)
	}
}

// idNamespace scopes content-derived point ids to this project.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sidmandirwala/CS-GY-6613-Final-Project/vectors"))

// PointID derives a stable id from a chunk's content and provenance, so reloading
// the same processed file overwrites the same points.
func PointID(chunk models.ProcessedChunk) string {
	key := chunk.Content + "\x00" + chunk.Metadata.DocID + "\x00" + chunk.Metadata.Source
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// toRecords keeps chunks that carry a vector of the given dimension.
// Later duplicates of the same id replace earlier ones.
func toRecords(chunks []models.ProcessedChunk, dimension int) []models.VectorRecord {
	records := make([]models.VectorRecord, 0, len(chunks))
	seen := make(map[string]int, len(chunks))
	for _, c := range chunks {
		if !c.HasEmbedding(dimension) {
			continue
		}
		rec := models.VectorRecord{
			ID:     PointID(c),
			Vector: c.Embedding,
			Payload: models.VectorPayload{
				Content:     c.Content,
				ContentType: c.ContentType,
				Metadata:    c.Metadata,
			},
		}
		if i, ok := seen[rec.ID]; ok {
			records[i] = rec
			continue
		}
		seen[rec.ID] = len(records)
		records = append(records, rec)
	}
	return records
}

// finalize enforces the search contract on backend output: scores at or above the
// threshold, non-increasing, at most limit.
func finalize(results []models.SearchResult, limit int, threshold float64) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= threshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func checkQuery(vector []float32, dimension, limit int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dimension)
	}
	if limit <= 0 {
		return fmt.Errorf("invalid limit: %d", limit)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero norm.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
