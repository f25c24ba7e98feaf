package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"murmur/internal/modules/conversation/domain"
	conversationout "murmur/internal/modules/conversation/port/out"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

type SQLiteHistoryIndex struct {
	db *sql.DB
}

func NewSQLiteHistoryIndex(dbPath string) (conversationout.HistoryIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	index := &SQLiteHistoryIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return index, nil
}

func (s *SQLiteHistoryIndex) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  created_at TEXT NOT NULL,
  last_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryIndex) SessionTitled(ctx context.Context, summary domain.Summary) error {
	if summary.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	lastAt := summary.LastAt
	if lastAt.IsZero() {
		lastAt = summary.CreatedAt
	}
	const stmt = `
INSERT INTO sessions (id, title, created_at, last_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title,
  last_at=excluded.last_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		summary.SessionID,
		summary.Title,
		summary.CreatedAt.UTC().Format(timeLayout),
		lastAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryIndex) ListSummaries(ctx context.Context, limit int) ([]domain.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created_at, last_at FROM sessions ORDER BY last_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var id, title, createdAt, lastAt string
		if err := rows.Scan(&id, &title, &createdAt, &lastAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		summary := domain.Summary{SessionID: id, Title: title, Local: true}
		summary.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		summary.LastAt, _ = time.Parse(timeLayout, lastAt)
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
