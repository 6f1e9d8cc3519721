package db

import (
	"fmt"
	"regexp"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable rejects names that cannot be interpolated into SurrealQL safely.
func ValidateTable(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return nil
}

// SourceSchemaSQL defines a schemaless document table with an index on the processed flag.
func SourceSchemaSQL(table string) string {
	return fmt.Sprintf(`
    DEFINE TABLE IF NOT EXISTS %[1]s SCHEMALESS;
    DEFINE INDEX IF NOT EXISTS %[1]s_processed ON %[1]s FIELDS processed;
`, table)
}

// VectorSchemaSQL defines a vector table with an HNSW cosine index of the given dimension.
func VectorSchemaSQL(table string, dimension int) string {
	return fmt.Sprintf(`
    DEFINE TABLE IF NOT EXISTS %[1]s SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS content ON %[1]s TYPE string;
    DEFINE FIELD IF NOT EXISTS content_type ON %[1]s TYPE string;
    DEFINE FIELD IF NOT EXISTS metadata ON %[1]s TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS embedding ON %[1]s TYPE array<float>;
    DEFINE INDEX IF NOT EXISTS %[1]s_embedding ON %[1]s FIELDS embedding HNSW DIMENSION %[2]d DIST COSINE TYPE F32;
`, table, dimension)
}
