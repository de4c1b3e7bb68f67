// Package sqlite provides a single-file favorites store for local runs.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// FavoriteStore persists favorites in SQLite.
type FavoriteStore struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path and creates the schema when missing.
func Open(path string) (*FavoriteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &FavoriteStore{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *FavoriteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *FavoriteStore) ListCodes(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT country_code FROM favorites WHERE user_id = ? ORDER BY country_code`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return codes, nil
}

func (s *FavoriteStore) Insert(ctx context.Context, userID, code string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, country_code, created_at) VALUES (?, ?, ?)`,
		userID, code, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) Delete(ctx context.Context, userID, code string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND country_code = ?`, userID, code)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}
