package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// sourcesFile is the on-disk shape of the sources list.
type sourcesFile struct {
	Sources []models.SourceConfig `json:"sources" yaml:"sources" toml:"sources"`
}

// DefaultSources returns the GitHub, Medium and LinkedIn collections in the given store.
func DefaultSources(storeURI string) []models.SourceConfig {
	return []models.SourceConfig{
		{StoreURI: storeURI, DBName: "github_scraper", CollectionName: "repositories", SourceName: "github"},
		{StoreURI: storeURI, DBName: "medium_scraper", CollectionName: "repositories", SourceName: "medium"},
		{StoreURI: storeURI, DBName: "linkedin_scraper", CollectionName: "profiles", SourceName: "linkedin"},
	}
}

// Sources returns the configured sources: the sources file when set, the defaults otherwise.
func (c Config) Sources() ([]models.SourceConfig, error) {
	if c.SourcesFile == "" {
		return DefaultSources(c.StoreURI), nil
	}
	return LoadSources(c.SourcesFile, c.StoreURI)
}

// LoadSources reads a YAML, TOML or JSON sources file. Entries without a
// store_uri inherit defaultStoreURI. Every entry is validated.
func LoadSources(path, defaultStoreURI string) ([]models.SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var file sourcesFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".json":
		err = json.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported sources file format: %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("%s: no sources defined", path)
	}

	for i := range file.Sources {
		src := &file.Sources[i]
		if src.StoreURI == "" {
			src.StoreURI = defaultStoreURI
		}
		if err := validate.Struct(src); err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
	}
	return file.Sources, nil
}
