package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/jackc/pgx/v5"
)

// PostgresRepository shares one connection, which pgx does not allow to be
// used concurrently, so every call holds lock.
type PostgresRepository struct {
	lock sync.Mutex
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and applies the embedded
// migrations. The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("unable to query database: %w", err)
	}
	log.Info("Connected to %s as %s", database, username)

	scripts, err := readMigrations("postgres")
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}
	for i, script := range scripts {
		if _, err := conn.Exec(ctx, script); err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (string, error) {
	q := `
	SELECT value FROM kv WHERE key = $1;
	`
	r.lock.Lock()
	defer r.lock.Unlock()
	var value string
	if err := r.conn.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &ErrNotFound{}
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (r *PostgresRepository) Set(ctx context.Context, key string, value string) error {
	q := `
	INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3;
	`
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, err := r.conn.Exec(ctx, q, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
