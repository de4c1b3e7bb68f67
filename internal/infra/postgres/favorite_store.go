package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type favoriteRow struct {
	bun.BaseModel `bun:"table:favorites,alias:f"`

	UserID      string    `bun:"user_id,pk"`
	CountryCode string    `bun:"country_code,pk"`
	CreatedAt   time.Time `bun:"created_at"`
}

// FavoriteStore persists favorites in the favorites table.
type FavoriteStore struct {
	db *bun.DB
}

func NewFavoriteStore(db *bun.DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

func (s *FavoriteStore) ListCodes(ctx context.Context, userID string) ([]string, error) {
	codes := make([]string, 0)
	err := s.db.NewSelect().
		Model((*favoriteRow)(nil)).
		Column("country_code").
		Where("user_id = ?", userID).
		Order("country_code").
		Scan(ctx, &codes)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return codes, nil
}

func (s *FavoriteStore) Insert(ctx context.Context, userID, code string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, country_code) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		userID, code)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) Delete(ctx context.Context, userID, code string) error {
	_, err := s.db.NewDelete().
		Model((*favoriteRow)(nil)).
		Where("user_id = ?", userID).
		Where("country_code = ?", code).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}
