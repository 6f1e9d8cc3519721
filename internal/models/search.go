package models

// VectorPayload is the data stored alongside each vector.
type VectorPayload struct {
	Content     string        `json:"content"`
	ContentType ContentType   `json:"content_type"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// VectorRecord is a stored vector with a collection-unique id.
type VectorRecord struct {
	ID      string        `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload VectorPayload `json:"payload"`
}

// SearchResult is one ranked hit from a similarity search.
type SearchResult struct {
	Content     string        `json:"content"`
	ContentType ContentType   `json:"content_type"`
	Metadata    ChunkMetadata `json:"metadata"`
	Score       float64       `json:"score"`
}

// ToSearchResult pairs a payload with its similarity score.
func (p VectorPayload) ToSearchResult(score float64) SearchResult {
	return SearchResult{
		Content:     p.Content,
		ContentType: p.ContentType,
		Metadata:    p.Metadata,
		Score:       score,
	}
}
