package memory

import (
	"context"
	"sort"
	"sync"
)

// FavoriteStore keeps favorite codes per user in process memory.
type FavoriteStore struct {
	mu    sync.RWMutex
	codes map[string]map[string]struct{}
}

func NewFavoriteStore() *FavoriteStore {
	return &FavoriteStore{codes: make(map[string]map[string]struct{})}
}

func (s *FavoriteStore) ListCodes(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.codes[userID]))
	for code := range s.codes[userID] {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

func (s *FavoriteStore) Insert(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.codes[userID]
	if !ok {
		set = make(map[string]struct{})
		s.codes[userID] = set
	}
	set[code] = struct{}{}
	return nil
}

func (s *FavoriteStore) Delete(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes[userID], code)
	if len(s.codes[userID]) == 0 {
		delete(s.codes, userID)
	}
	return nil
}
