// Package source provides read/update access to the collections of scraped documents.
package source

import (
	"context"
	"errors"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// ErrNotFound is returned when marking a document that does not exist.
var ErrNotFound = errors.New("document not found")

// Repository is the read/update facade over one source collection.
type Repository interface {
	// FindUnprocessed returns up to limit documents whose processed flag is not set.
	// No ordering is promised beyond what the backing store returns.
	FindUnprocessed(ctx context.Context, limit int) ([]models.RawDocument, error)

	// MarkProcessed sets processed, processed_at and processed_file on one document.
	MarkProcessed(ctx context.Context, docID, file string) error

	// Insert stores crawler records, replacing records with the same id.
	Insert(ctx context.Context, records []map[string]any) (int, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Opener acquires a repository for one source. Each call returns a handle
// the caller must Close when the unit of work is done.
type Opener interface {
	Open(ctx context.Context, cfg models.SourceConfig) (Repository, error)
}

// recordID extracts the id of a crawler record, accepting "id" or "_id".
func recordID(record map[string]any) (string, error) {
	doc, err := models.RawDocumentFromMap(record)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}
