package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources("memory://")
	require.Len(t, sources, 3)
	assert.Equal(t, "github", sources[0].Name())
	assert.Equal(t, "medium_scraper", sources[1].DBName)
	assert.Equal(t, "profiles", sources[2].CollectionName)
	for _, s := range sources {
		assert.Equal(t, "memory://", s.StoreURI)
	}
}

func TestLoadSources(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"yaml", "sources.yaml", `
sources:
  - db_name: github_scraper
    collection_name: repositories
    source_name: github
  - store_uri: ws://surreal:8000/rpc
    db_name: medium_scraper
    collection_name: articles
`},
		{"toml", "sources.toml", `
[[sources]]
db_name = "github_scraper"
collection_name = "repositories"
source_name = "github"

[[sources]]
store_uri = "ws://surreal:8000/rpc"
db_name = "medium_scraper"
collection_name = "articles"
`},
		{"json", "sources.json", `{"sources": [
  {"db_name": "github_scraper", "collection_name": "repositories", "source_name": "github"},
  {"store_uri": "ws://surreal:8000/rpc", "db_name": "medium_scraper", "collection_name": "articles"}
]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources, err := LoadSources(writeFile(t, tt.file, tt.content), "sqlite://default.db")
			require.NoError(t, err)
			require.Len(t, sources, 2)

			assert.Equal(t, "sqlite://default.db", sources[0].StoreURI)
			assert.Equal(t, "github", sources[0].Name())
			assert.Equal(t, "ws://surreal:8000/rpc", sources[1].StoreURI)
			assert.Equal(t, "articles", sources[1].Name())
		})
	}
}

func TestLoadSourcesErrors(t *testing.T) {
	t.Run("missing collection", func(t *testing.T) {
		path := writeFile(t, "s.yaml", "sources:\n  - db_name: x\n")
		_, err := LoadSources(path, "memory://")
		assert.ErrorContains(t, err, "CollectionName")
	})

	t.Run("empty list", func(t *testing.T) {
		path := writeFile(t, "s.yaml", "sources: []\n")
		_, err := LoadSources(path, "memory://")
		assert.ErrorContains(t, err, "no sources")
	})

	t.Run("unknown format", func(t *testing.T) {
		path := writeFile(t, "s.ini", "")
		_, err := LoadSources(path, "memory://")
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml"), "memory://")
		assert.Error(t, err)
	})
}

func TestConfigSources(t *testing.T) {
	cfg := Config{StoreURI: "memory://"}
	sources, err := cfg.Sources()
	require.NoError(t, err)
	assert.Len(t, sources, 3)
}
