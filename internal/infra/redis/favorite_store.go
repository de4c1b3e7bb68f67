package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// FavoriteStore keeps each user's favorite codes in a Redis set: floria:favorites:{userID}.
type FavoriteStore struct {
	client *redis.Client
}

func NewFavoriteStore(client *redis.Client) *FavoriteStore {
	return &FavoriteStore{client: client}
}

func (s *FavoriteStore) ListCodes(ctx context.Context, userID string) ([]string, error) {
	codes, err := s.client.SMembers(ctx, s.key(userID)).Result()
	if err != nil && !isMiss(err) {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	sort.Strings(codes)
	return codes, nil
}

func (s *FavoriteStore) Insert(ctx context.Context, userID, code string) error {
	if err := s.client.SAdd(ctx, s.key(userID), code).Err(); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) Delete(ctx context.Context, userID, code string) error {
	if err := s.client.SRem(ctx, s.key(userID), code).Err(); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) key(userID string) string {
	return "floria:favorites:" + userID
}
