package quota

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/mindrender/mindrender/internal/model"
)

// PostgresStore implements Store backed by PostgreSQL. Schema lives in
// migrations/; run them with `mindrender migrate`.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection. For tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AppendUsageEvent inserts one usage row.
func (s *PostgresStore) AppendUsageEvent(ctx context.Context, event model.UsageEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_usage (user_id, subject, prompt, tokens_used, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.UserID, string(event.Subject), event.Prompt, event.Tokens, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

// SumUsage aggregates the user's total on read.
func (s *PostgresStore) SumUsage(ctx context.Context, userID string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(tokens_used) FROM token_usage WHERE user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	return int(total.Int64), nil
}
