package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTable(t *testing.T) {
	tests := []struct {
		name  string
		table string
		ok    bool
	}{
		{"plain", "content_vectors", true},
		{"leading underscore", "_docs", true},
		{"digits", "profiles2", true},
		{"statement injection", "drop; table", false},
		{"empty", "", false},
		{"leading digit", "1docs", false},
		{"dotted", "db.table", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTable(tt.table)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTable)
			}
		})
	}
}

func TestVectorSchemaSQL(t *testing.T) {
	sql := VectorSchemaSQL("content_vectors", 384)
	assert.Contains(t, sql, "DEFINE TABLE IF NOT EXISTS content_vectors SCHEMAFULL")
	assert.Contains(t, sql, "HNSW DIMENSION 384 DIST COSINE")
}
