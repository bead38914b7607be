package checkpoint

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-reviewer/internal/db"
)

// Open selects a backend from a store URL:
//
//	memory:// or ""          in-process map
//	bolt:///path/runs.db     bbolt file
//	postgres://...           PostgreSQL (schema migrated on open)
//
// Durable backends are fronted by an LRU cache.
func Open(ctx context.Context, url string) (Store, error) {
	var backend Store
	switch {
	case url == "" || url == "memory" || strings.HasPrefix(url, "memory://"):
		return NewMemoryStore(), nil
	case strings.HasPrefix(url, "bolt://"):
		path := strings.TrimPrefix(url, "bolt://")
		if path == "" {
			return nil, fmt.Errorf("bolt store URL needs a file path")
		}
		s, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		backend = s
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		database, err := db.Connect(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		backend = NewPostgresStore(database)
	default:
		return nil, fmt.Errorf("unsupported checkpoint store URL %q", url)
	}

	return NewCachedStore(backend, DefaultCacheSize, DefaultCacheTTL), nil
}
