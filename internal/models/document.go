// Package models defines the data structures shared by the ingestion and retrieval paths.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RawDocument is a scraped document owned by a source collection.
// Content holds flat text; Chunks holds pre-existing fragments when the crawler produced them.
type RawDocument struct {
	ID            string     `json:"id"`
	Content       string     `json:"content,omitempty"`
	Chunks        []Chunk    `json:"chunks,omitempty"`
	Processed     bool       `json:"processed"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	ProcessedFile string     `json:"processed_file,omitempty"`
}

// SourceConfig identifies one ingested source collection.
type SourceConfig struct {
	StoreURI       string `json:"store_uri" yaml:"store_uri" toml:"store_uri" validate:"required"`
	DBName         string `json:"db_name" yaml:"db_name" toml:"db_name" validate:"required"`
	CollectionName string `json:"collection_name" yaml:"collection_name" toml:"collection_name" validate:"required"`
	SourceName     string `json:"source_name" yaml:"source_name" toml:"source_name"`
}

// Name returns the source name, falling back to the collection name.
func (s SourceConfig) Name() string {
	if s.SourceName != "" {
		return s.SourceName
	}
	return s.CollectionName
}

// ParseContent folds the shapes crawlers produce into flat content or chunks.
//
//   - string: flat content
//   - object: rendered as "key:\nvalue" blocks in sorted key order (GitHub path -> file text,
//     Medium title/subtitle/content)
//   - array: one chunk per element; objects contribute their "content" field
func ParseContent(raw any) (string, []Chunk) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		return renderMapping(v), nil
	case []any:
		chunks := make([]Chunk, 0, len(v))
		for _, item := range v {
			chunks = append(chunks, Chunk{Content: chunkContent(item)})
		}
		return "", chunks
	default:
		return stringify(v), nil
	}
}

// DecodeRawDocument decodes a crawler JSON record into a RawDocument.
// The id is read from "id" or "_id"; a top-level "chunks" array wins over "content".
func DecodeRawDocument(data []byte) (RawDocument, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return RawDocument{}, fmt.Errorf("decode document: %w", err)
	}
	return RawDocumentFromMap(fields)
}

// RawDocumentFromMap builds a RawDocument from a generic record.
func RawDocumentFromMap(fields map[string]any) (RawDocument, error) {
	id := stringify(fields["id"])
	if id == "" {
		id = stringify(fields["_id"])
	}
	if id == "" {
		return RawDocument{}, fmt.Errorf("document has no id")
	}

	doc := RawDocument{ID: id}
	if chunks, ok := fields["chunks"].([]any); ok && len(chunks) > 0 {
		_, doc.Chunks = ParseContent(chunks)
	} else if content, ok := fields["content"]; ok {
		doc.Content, doc.Chunks = ParseContent(content)
	} else {
		// Medium articles keep title/subtitle/content at the top level.
		rest := make(map[string]any)
		for _, key := range []string{"title", "subtitle", "text", "body"} {
			if v, ok := fields[key]; ok {
				rest[key] = v
			}
		}
		doc.Content = renderMapping(rest)
	}

	if processed, ok := fields["processed"].(bool); ok {
		doc.Processed = processed
	}
	if file, ok := fields["processed_file"].(string); ok {
		doc.ProcessedFile = file
	}
	return doc, nil
}

func chunkContent(item any) string {
	if m, ok := item.(map[string]any); ok {
		if c, ok := m["content"]; ok {
			content, _ := ParseContent(c)
			return content
		}
		return renderMapping(m)
	}
	return stringify(item)
}

func renderMapping(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n\n")
		}
		value, chunks := ParseContent(m[k])
		for j, c := range chunks {
			if j > 0 || value != "" {
				value += "\n"
			}
			value += c.Content
		}
		b.WriteString(k)
		b.WriteString(":\n")
		b.WriteString(value)
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
