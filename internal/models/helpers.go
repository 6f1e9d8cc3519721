package models

import (
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordIDString extracts the key part of a SurrealDB RecordID.
// String and integer keys are supported; anything else is an error.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	switch v := id.ID.(type) {
	case string:
		return v, nil
	case int, int64, uint64:
		return fmt.Sprintf("%d", v), nil
	default:
		return "", fmt.Errorf("unexpected ID type: %T (expected string or integer)", id.ID)
	}
}

// MustRecordIDString extracts the key, panicking if it is not a string or integer.
// Use only for ids this module created itself.
func MustRecordIDString(id surrealmodels.RecordID) string {
	s, err := RecordIDString(id)
	if err != nil {
		panic(err)
	}
	return s
}
