// Package httpapi loads entities from a remote JSON API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"floria-quiz-service/internal/domain"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single fetch of the entity list.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 16 << 20

var errNotArray = errors.New("response is not a JSON array")

// EntityLoader fetches a JSON array of countries and maps loosely shaped items onto domain.Entity.
type EntityLoader struct {
	url    string
	client *http.Client
}

func NewEntityLoader(url string, timeout time.Duration) *EntityLoader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &EntityLoader{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (l *EntityLoader) LoadEntities(ctx context.Context) ([]domain.Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch countries: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read countries: %w", err)
	}
	return ParseEntities(body)
}

// ParseEntities maps a JSON array onto entities. IDs are assigned by position, starting at 1.
func ParseEntities(body []byte) ([]domain.Entity, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parse countries: invalid json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("parse countries: %w", errNotArray)
	}

	items := root.Array()
	entities := make([]domain.Entity, 0, len(items))
	for i, item := range items {
		entities = append(entities, domain.Entity{
			ID:           i + 1,
			Name:         firstOf(item, "name").stringOr("Onbekend"),
			Continent:    firstOf(item, "continent", "region").stringOr("Unknown"),
			MediaRef:     firstOf(item, "flag_url", "flag", "media.flag").stringOr(""),
			Capital:      firstOf(item, "capital", "capitalCity").stringOr(""),
			Population:   firstOf(item, "population", "populationCount").Int(),
			Currency:     firstOf(item, "currency", "mainCurrency").stringOr(""),
			FavoriteCode: firstOf(item, "abbreviation", "code", "alpha2Code").stringOr(""),
		})
	}
	return entities, nil
}

type field struct {
	gjson.Result
	found bool
}

// firstOf returns the first path that is present and not null.
func firstOf(item gjson.Result, paths ...string) field {
	for _, p := range paths {
		if r := item.Get(p); r.Exists() && r.Type != gjson.Null {
			return field{Result: r, found: true}
		}
	}
	return field{}
}

func (f field) stringOr(fallback string) string {
	if !f.found {
		return fallback
	}
	return f.String()
}
