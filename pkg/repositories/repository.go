package repositories

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"sort"
	"strings"
)

// Repository is an opaque key-value store. Values are stored whole.
type Repository interface {
	Close(ctx context.Context) error
	// Get returns ErrNotFound when key has never been set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

//go:embed migrations
var migrations embed.FS

// Open creates a repository from a connection string:
// sqlite://<path>, postgresql://<dsn> or memory://.
func Open(ctx context.Context, connStr string) (Repository, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	switch u.Scheme {
	case "sqlite":
		return NewSQLiteRepository(ctx, strings.TrimPrefix(connStr, "sqlite://"))
	case "postgres", "postgresql":
		return NewPostgresRepository(ctx, connStr)
	case "memory":
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown database type %q", u.Scheme)
	}
}

// readMigrations returns the migration scripts for dialect in file name order.
func readMigrations(dialect string) ([]string, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		b, err := fs.ReadFile(migrations, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		scripts = append(scripts, string(b))
	}
	return scripts, nil
}
