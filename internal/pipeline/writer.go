package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// fileTimeLayout is the timestamp suffix of output file names.
const fileTimeLayout = "20060102_150405"

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_")

// FileName returns the output file name for a document: {source}_{docid}_{YYYYmmdd_HHMMSS}.json.
func FileName(source, docID string, at time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.json", source, docID, at.Format(fileTimeLayout))
	return fileNameReplacer.Replace(name)
}

// writeFile writes the record as indented JSON. The file appears atomically
// so a crashed run never leaves a truncated record behind.
func writeFile(dir, name string, file models.ProcessedDocumentFile) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}
