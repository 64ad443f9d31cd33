package quota

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mindrender/mindrender/internal/model"
)

// SQLiteStore implements Store backed by a local SQLite file. This is the
// default for single-host deployments that don't run Postgres; the schema
// is created on open.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS token_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	prompt TEXT NOT NULL,
	tokens_used INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_token_usage_user ON token_usage (user_id);
`

// NewSQLiteStore opens (or creates) the usage database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendUsageEvent inserts one usage row.
func (s *SQLiteStore) AppendUsageEvent(ctx context.Context, event model.UsageEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_usage (user_id, subject, prompt, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.UserID, string(event.Subject), event.Prompt, event.Tokens, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

// SumUsage aggregates the user's total on read.
func (s *SQLiteStore) SumUsage(ctx context.Context, userID string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(tokens_used) FROM token_usage WHERE user_id = ?
	`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	return int(total.Int64), nil
}
