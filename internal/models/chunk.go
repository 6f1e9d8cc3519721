package models

import (
	"fmt"
	"strings"
	"time"
)

// ContentType is the semantic category assigned to a chunk.
type ContentType string

const (
	ContentCode    ContentType = "code"
	ContentArticle ContentType = "article"
	ContentProfile ContentType = "profile"
	ContentPost    ContentType = "post"
	ContentUnknown ContentType = "unknown"
)

// ContentTypes lists every content type in classifier precedence order.
var ContentTypes = []ContentType{ContentCode, ContentProfile, ContentArticle, ContentPost, ContentUnknown}

// ParseContentType converts a stored label back into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ContentTypes {
		if ct == known {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown content type: %q", s)
}

// Chunk is a content-bounded fragment of a raw document, before processing.
type Chunk struct {
	Content string `json:"content"`
	// OriginalChunkIndex is set when the chunk was sliced out of a larger one.
	OriginalChunkIndex *int `json:"original_chunk_index,omitempty"`
}

// ChunkMetadata is the provenance carried by every processed chunk.
type ChunkMetadata struct {
	DocID       string    `json:"doc_id"`
	Source      string    `json:"source"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ProcessedChunk is a classified and embedded chunk.
// Embedding is either exactly the configured dimension or empty.
type ProcessedChunk struct {
	Content     string        `json:"content"`
	ContentType ContentType   `json:"content_type"`
	Metadata    ChunkMetadata `json:"metadata"`
	Embedding   []float32     `json:"embedding"`
}

// HasEmbedding reports whether the chunk carries a vector of the given dimension.
func (c ProcessedChunk) HasEmbedding(dimension int) bool {
	return len(c.Embedding) > 0 && len(c.Embedding) == dimension
}

// ProcessedDocumentFile is the on-disk record written once per processed document.
type ProcessedDocumentFile struct {
	Chunks                  []ProcessedChunk    `json:"chunks"`
	TotalChunks             int                 `json:"total_chunks"`
	ContentTypeDistribution map[ContentType]int `json:"content_type_distribution"`
}

// NewProcessedDocumentFile assembles a file record and its content type distribution.
func NewProcessedDocumentFile(chunks []ProcessedChunk) ProcessedDocumentFile {
	if chunks == nil {
		chunks = []ProcessedChunk{}
	}
	dist := make(map[ContentType]int)
	for _, c := range chunks {
		dist[c.ContentType]++
	}
	return ProcessedDocumentFile{
		Chunks:                  chunks,
		TotalChunks:             len(chunks),
		ContentTypeDistribution: dist,
	}
}
