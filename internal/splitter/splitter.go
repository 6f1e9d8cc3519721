// Package splitter breaks oversized documents into bounded chunks.
package splitter

import (
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// DefaultMaxChunkSize is the largest chunk, in characters, passed to the processor.
const DefaultMaxChunkSize = 10000

// Split returns doc with its Chunks replaced by size-bounded chunks.
//
// Existing chunks are used when present, otherwise the whole content is one
// implicit chunk. A chunk longer than maxChunkSize characters becomes
// consecutive slices of exactly maxChunkSize (the last may be shorter), each
// tagged with the position of the chunk it came from. Shorter chunks pass
// through unchanged. A non-positive maxChunkSize disables slicing.
func Split(doc models.RawDocument, maxChunkSize int) models.RawDocument {
	source := doc.Chunks
	if len(source) == 0 {
		source = []models.Chunk{{Content: doc.Content}}
	}

	out := make([]models.Chunk, 0, len(source))
	for i, chunk := range source {
		runes := []rune(chunk.Content)
		if maxChunkSize <= 0 || len(runes) <= maxChunkSize {
			out = append(out, chunk)
			continue
		}

		for start := 0; start < len(runes); start += maxChunkSize {
			end := min(start+maxChunkSize, len(runes))
			index := i
			out = append(out, models.Chunk{
				Content:            string(runes[start:end]),
				OriginalChunkIndex: &index,
			})
		}
	}

	doc.Chunks = out
	return doc
}
