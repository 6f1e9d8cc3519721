package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestRecordIDString(t *testing.T) {
	tests := []struct {
		name    string
		id      surrealmodels.RecordID
		want    string
		wantErr bool
	}{
		{"string key", surrealmodels.NewRecordID("document", "abc"), "abc", false},
		{"int key", surrealmodels.NewRecordID("document", 42), "42", false},
		{"uint64 key", surrealmodels.NewRecordID("document", uint64(7)), "7", false},
		{"array key", surrealmodels.NewRecordID("document", []any{"a", 1}), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RecordIDString(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseContent(t *testing.T) {
	t.Run("flat string", func(t *testing.T) {
		content, chunks := ParseContent("hello")
		assert.Equal(t, "hello", content)
		assert.Nil(t, chunks)
	})

	t.Run("mapping renders sorted blocks", func(t *testing.T) {
		content, chunks := ParseContent(map[string]any{
			"src/main.go": "package main",
			"README.md":   "# readme",
		})
		assert.Nil(t, chunks)
		assert.Equal(t, "README.md:\n# readme\n\nsrc/main.go:\npackage main", content)
	})

	t.Run("array becomes chunks", func(t *testing.T) {
		content, chunks := ParseContent([]any{
			map[string]any{"content": "first"},
			"second",
		})
		assert.Empty(t, content)
		require.Len(t, chunks, 2)
		assert.Equal(t, "first", chunks[0].Content)
		assert.Equal(t, "second", chunks[1].Content)
		assert.Nil(t, chunks[0].OriginalChunkIndex)
	})

	t.Run("nil", func(t *testing.T) {
		content, chunks := ParseContent(nil)
		assert.Empty(t, content)
		assert.Nil(t, chunks)
	})
}

func TestDecodeRawDocument(t *testing.T) {
	t.Run("mongo style id and content", func(t *testing.T) {
		doc, err := DecodeRawDocument([]byte(`{"_id": "r1", "content": "text", "processed": true}`))
		require.NoError(t, err)
		assert.Equal(t, "r1", doc.ID)
		assert.Equal(t, "text", doc.Content)
		assert.True(t, doc.Processed)
	})

	t.Run("chunks win over content", func(t *testing.T) {
		doc, err := DecodeRawDocument([]byte(`{"id": 3, "content": "ignored", "chunks": [{"content": "a"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "3", doc.ID)
		assert.Empty(t, doc.Content)
		require.Len(t, doc.Chunks, 1)
	})

	t.Run("medium article fields", func(t *testing.T) {
		doc, err := DecodeRawDocument([]byte(`{"id": "m1", "title": "T", "subtitle": "S"}`))
		require.NoError(t, err)
		assert.Equal(t, "subtitle:\nS\n\ntitle:\nT", doc.Content)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := DecodeRawDocument([]byte(`{"content": "x"}`))
		assert.Error(t, err)
	})
}

func TestNewProcessedDocumentFile(t *testing.T) {
	file := NewProcessedDocumentFile([]ProcessedChunk{
		{ContentType: ContentCode},
		{ContentType: ContentCode},
		{ContentType: ContentPost},
	})

	assert.Equal(t, 3, file.TotalChunks)
	sum := 0
	for _, n := range file.ContentTypeDistribution {
		sum += n
	}
	assert.Equal(t, file.TotalChunks, sum)
	assert.Equal(t, 2, file.ContentTypeDistribution[ContentCode])

	data, err := json.Marshal(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content_type_distribution":{"code":2,"post":1}`)
}

func TestParseContentType(t *testing.T) {
	ct, err := ParseContentType(" Article ")
	require.NoError(t, err)
	assert.Equal(t, ContentArticle, ct)

	_, err = ParseContentType("video")
	assert.Error(t, err)
}
