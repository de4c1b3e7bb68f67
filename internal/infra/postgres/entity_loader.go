package postgres

import (
	"context"
	"fmt"

	"floria-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

const selectCountries = `
SELECT id,
       name,
       COALESCE(continent, ''),
       COALESCE(flag_url, ''),
       COALESCE(capital, ''),
       COALESCE(population, 0),
       COALESCE(currency, ''),
       COALESCE(abbreviation, '')
FROM countries
ORDER BY id`

// EntityLoader loads the country table from Postgres.
type EntityLoader struct {
	pool *pgxpool.Pool
}

func NewEntityLoader(pool *pgxpool.Pool) *EntityLoader {
	return &EntityLoader{pool: pool}
}

func (l *EntityLoader) LoadEntities(ctx context.Context) ([]domain.Entity, error) {
	rows, err := l.pool.Query(ctx, selectCountries)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Continent, &e.MediaRef, &e.Capital, &e.Population, &e.Currency, &e.FavoriteCode); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	return entities, nil
}
