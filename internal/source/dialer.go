package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/db"
	"github.com/sidmandirwala/CS-GY-6613-Final-Project/internal/models"
)

// Dialer opens repositories by the scheme of the source's store_uri:
//
//	ws://, wss://, http://, https://  SurrealDB (db_name selects the database)
//	sqlite://<path>, file:<path>      local SQLite file, one table per db_name/collection
//	memory://<name>                   shared in-process store
type Dialer struct {
	// Surreal supplies namespace and credentials; URL and Database come from the source.
	Surreal db.Config
	Logger  *slog.Logger

	mu     sync.Mutex
	memory map[string]*Memory
}

// Compile-time check that Dialer implements Opener.
var _ Opener = (*Dialer)(nil)

// NewDialer creates a dialer with the given SurrealDB defaults.
func NewDialer(surreal db.Config, logger *slog.Logger) *Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialer{Surreal: surreal, Logger: logger, memory: make(map[string]*Memory)}
}

// Open returns a repository for the source. The caller owns it and must Close it.
func (d *Dialer) Open(ctx context.Context, cfg models.SourceConfig) (Repository, error) {
	uri := cfg.StoreURI
	switch {
	case strings.HasPrefix(uri, "memory://"):
		return d.Memory(cfg), nil

	case strings.HasPrefix(uri, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(uri, "sqlite://"), SQLiteTable(cfg))

	case strings.HasPrefix(uri, "file:"):
		return OpenSQLite(ctx, strings.TrimPrefix(uri, "file:"), SQLiteTable(cfg))

	case strings.HasPrefix(uri, "ws://"), strings.HasPrefix(uri, "wss://"),
		strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		dbCfg := d.Surreal
		dbCfg.URL = uri
		if cfg.DBName != "" {
			dbCfg.Database = cfg.DBName
		}
		client, err := db.NewClient(ctx, dbCfg, d.Logger)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Name(), err)
		}
		repo, err := NewSurreal(ctx, client, cfg.CollectionName, d.Logger)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		repo.owned = true
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported store uri %q for source %s", uri, cfg.Name())
	}
}

// Memory returns the shared in-process store for a source, creating it on first use.
func (d *Dialer) Memory(cfg models.SourceConfig) *Memory {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.memory == nil {
		d.memory = make(map[string]*Memory)
	}
	key := strings.TrimPrefix(cfg.StoreURI, "memory://") + "/" + cfg.DBName + "/" + cfg.CollectionName
	m, ok := d.memory[key]
	if !ok {
		m = NewMemory()
		d.memory[key] = m
	}
	return m
}

// SQLiteTable names the table holding a source inside a shared SQLite file.
// Databases are flattened into the table name.
func SQLiteTable(cfg models.SourceConfig) string {
	if cfg.DBName == "" {
		return cfg.CollectionName
	}
	return cfg.DBName + "_" + cfg.CollectionName
}
