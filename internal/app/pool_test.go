package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"floria-quiz-service/internal/domain"
)

// gatedSource returns queued responses in call order, each one released by its own gate.
type gatedSource struct {
	mu      sync.Mutex
	calls   int
	results []sourceResult
	started chan int
}

type sourceResult struct {
	entities []domain.Entity
	err      error
	gate     chan struct{}
}

func newGatedSource(results ...sourceResult) *gatedSource {
	return &gatedSource{results: results, started: make(chan int, len(results)+1)}
}

func (s *gatedSource) Entities(ctx context.Context) ([]domain.Entity, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()
	s.started <- idx

	if idx >= len(s.results) {
		return nil, errors.New("unexpected fetch")
	}
	res := s.results[idx]
	if res.gate != nil {
		select {
		case <-res.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res.entities, res.err
}

func TestPoolRefreshSuccess(t *testing.T) {
	entities := samplePool(5)
	entities = append(entities, domain.Entity{ID: 6, Name: "Atlantis", MediaRef: "null"})
	pool := NewEntityPool(newGatedSource(sourceResult{entities: entities}), discardLogger(), nil)

	applied, err := pool.Refresh(context.Background(), domain.Identity{UserID: "u1"})
	if err != nil || !applied {
		t.Fatalf("refresh: applied=%v err=%v", applied, err)
	}
	state := pool.State()
	if state.Size != 6 || state.Usable != 5 || state.Loading || state.Error != "" {
		t.Fatalf("unexpected pool state %+v", state)
	}
	if len(pool.QuizCandidates()) != 5 {
		t.Fatalf("expected flagless entity excluded from candidates")
	}
	if e, ok := pool.Lookup(6); !ok || e.Name != "Atlantis" {
		t.Fatalf("expected lookup to include flagless entity")
	}
}

func TestPoolRefreshFailureEmptiesPool(t *testing.T) {
	boom := errors.New("503")
	source := newGatedSource(sourceResult{entities: samplePool(4)}, sourceResult{err: boom})
	pool := NewEntityPool(source, discardLogger(), nil)
	user := domain.Identity{UserID: "u1"}

	if _, err := pool.Refresh(context.Background(), user); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	_, err := pool.Refresh(context.Background(), user)
	if !errors.Is(err, domain.ErrEntitiesFetch) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	if len(pool.Entities()) != 0 {
		t.Fatalf("expected empty pool after failure")
	}
	if pool.State().Error == "" || pool.Err() == nil {
		t.Fatalf("expected failure to be visible")
	}
}

func TestPoolDropsSupersededRefresh(t *testing.T) {
	gate := make(chan struct{})
	stale := []domain.Entity{{ID: 99, Name: "Stale", MediaRef: "https://x/y.png"}}
	source := newGatedSource(sourceResult{entities: stale, gate: gate}, sourceResult{entities: samplePool(4)})
	pool := NewEntityPool(source, discardLogger(), nil)

	done := make(chan bool, 1)
	go func() {
		applied, _ := pool.Refresh(context.Background(), domain.Identity{UserID: "alice"})
		done <- applied
	}()
	<-source.started

	if applied, err := pool.Refresh(context.Background(), domain.Identity{UserID: "bob"}); !applied || err != nil {
		t.Fatalf("second refresh: applied=%v err=%v", applied, err)
	}
	close(gate)
	if <-done {
		t.Fatalf("expected superseded refresh to be dropped")
	}
	if _, ok := pool.Lookup(99); ok {
		t.Fatalf("stale snapshot leaked into pool")
	}
	if len(pool.Entities()) != 4 {
		t.Fatalf("expected bob's snapshot, got %d entities", len(pool.Entities()))
	}
}

func TestPoolIdentitySwitchClearsSnapshotBeforeFetch(t *testing.T) {
	gate := make(chan struct{})
	source := newGatedSource(sourceResult{entities: samplePool(5)}, sourceResult{entities: samplePool(6), gate: gate})
	pool := NewEntityPool(source, discardLogger(), nil)

	if _, err := pool.Refresh(context.Background(), domain.Identity{UserID: "alice"}); err != nil {
		t.Fatalf("refresh alice: %v", err)
	}
	<-source.started

	done := make(chan error, 1)
	go func() {
		_, err := pool.Refresh(context.Background(), domain.Identity{UserID: "bob"})
		done <- err
	}()
	<-source.started

	if _, ok := pool.Lookup(1); ok {
		t.Fatalf("alice's snapshot still resolvable during bob's refresh")
	}
	if state := pool.State(); state.Size != 0 || !state.Loading {
		t.Fatalf("expected empty loading pool, got %+v", state)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("refresh bob: %v", err)
	}
	if len(pool.Entities()) != 6 || pool.Loading() {
		t.Fatalf("expected bob's snapshot, got %+v", pool.State())
	}
}

func TestClientRejectsPoolOperationsDuringIdentitySwitch(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	source := newGatedSource(sourceResult{entities: samplePool(6)}, sourceResult{entities: samplePool(6), gate: gate})
	pool := NewEntityPool(source, discardLogger(), nil)
	store := newStubFavoriteStore()
	favorites := NewFavoriteSet(store, pool, discardLogger())
	client := NewClient("c1", pool, favorites, NewQuizSession(seeded(3)), discardLogger())
	defer client.Close()

	if err := client.SetIdentity(ctx, domain.Identity{UserID: "alice"}); err != nil {
		t.Fatalf("set alice: %v", err)
	}
	<-source.started
	<-store.listStarted

	done := make(chan error, 1)
	go func() { done <- client.SetIdentity(ctx, domain.Identity{UserID: "bob"}) }()
	<-source.started

	if _, err := client.Restart(); !errors.Is(err, domain.ErrPoolLoading) {
		t.Fatalf("expected restart rejected while loading, got %v", err)
	}
	if _, err := client.ToggleFavorite(ctx, 1); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected toggle against previous pool rejected, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("set bob: %v", err)
	}
	<-store.listStarted
	if state := client.State(); state.Status != domain.QuizInProgress {
		t.Fatalf("expected quiz started on bob's pool, got %s", state.Status)
	}
	res, err := client.ToggleFavorite(ctx, 1)
	if err != nil || !res.Favorite {
		t.Fatalf("expected toggle after load, got %+v err=%v", res, err)
	}
	if got := store.stored("bob"); len(got) != 1 || got[0] != "C1" {
		t.Fatalf("expected C1 stored for bob, got %v", got)
	}
}

func TestPoolRefreshWithoutIdentityClears(t *testing.T) {
	source := newGatedSource(sourceResult{entities: samplePool(4)})
	pool := NewEntityPool(source, discardLogger(), nil)

	if _, err := pool.Refresh(context.Background(), domain.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	applied, err := pool.Refresh(context.Background(), domain.Identity{})
	if !applied || err != nil {
		t.Fatalf("clear: applied=%v err=%v", applied, err)
	}
	if len(pool.Entities()) != 0 {
		t.Fatalf("expected empty pool without identity")
	}
	if calls := len(source.started); calls != 1 {
		t.Fatalf("expected no fetch for absent identity, got %d fetches", calls)
	}
}

func TestSearchEntities(t *testing.T) {
	entities := []domain.Entity{
		{ID: 1, Name: "netherlands", MediaRef: "https://flagcdn.com/nl.svg"},
		{ID: 2, Name: "Belgium", MediaRef: "https://flagcdn.com/be.svg"},
		{ID: 3, Name: "Germany", MediaRef: ""},
		{ID: 4, Name: "Denmark", MediaRef: "ftp://flags/dk.png"},
		{ID: 5, Name: "New Zealand", MediaRef: " https://flagcdn.com/nz.svg "},
	}

	all := SearchEntities(entities, "")
	if len(all) != 3 {
		t.Fatalf("expected three flagged entities, got %+v", all)
	}
	if all[0].Name != "Belgium" || all[1].Name != "netherlands" || all[2].Name != "New Zealand" {
		t.Fatalf("expected case-insensitive name order, got %+v", all)
	}

	matches := SearchEntities(entities, "  NE ")
	if len(matches) != 2 {
		t.Fatalf("expected two matches for 'ne', got %+v", matches)
	}
	if got := SearchEntities(entities, "germ"); len(got) != 0 {
		t.Fatalf("flagless entity must not be searchable, got %+v", got)
	}
}
