package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"floria-quiz-service/internal/domain"
)

func TestEntityRepositoryCaches(t *testing.T) {
	loader := &countingLoader{EntityLoader: NewStaticEntityLoader(sampleEntities())}
	repo := NewEntityRepository(loader, time.Minute)

	if _, err := repo.Entities(context.Background()); err != nil {
		t.Fatalf("entities: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	got, err := repo.Entities(context.Background())
	if err != nil {
		t.Fatalf("entities 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
	if len(got) != 2 || got[0].Name != "Belgium" {
		t.Fatalf("unexpected entities %+v", got)
	}
}

func TestEntityRepositoryExpires(t *testing.T) {
	loader := &countingLoader{EntityLoader: NewStaticEntityLoader(sampleEntities())}
	repo := NewEntityRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.Entities(context.Background()); err != nil {
		t.Fatalf("entities: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.Entities(context.Background()); err != nil {
		t.Fatalf("entities: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", loader.count())
	}

	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := repo.Entities(context.Background()); err != nil {
		t.Fatalf("entities: %v", err)
	}
	if loader.count() != 3 {
		t.Fatalf("expected reload after invalidate, got %d loads", loader.count())
	}
}

func TestEntityRepositoryDoesNotCacheFailures(t *testing.T) {
	loader := &countingLoader{EntityLoader: NewStaticEntityLoader(sampleEntities()), failFirst: true}
	repo := NewEntityRepository(loader, time.Minute)

	if _, err := repo.Entities(context.Background()); err == nil {
		t.Fatalf("expected first load to fail")
	}
	if _, err := repo.Entities(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected two loads, got %d", loader.count())
	}
}

func TestEntityRepositoryReturnsCopies(t *testing.T) {
	repo := NewEntityRepository(NewStaticEntityLoader(sampleEntities()), time.Minute)
	first, _ := repo.Entities(context.Background())
	first[0].Name = "mutated"
	second, _ := repo.Entities(context.Background())
	if second[0].Name != "Belgium" {
		t.Fatalf("cache shared its backing slice: %+v", second[0])
	}
}

func TestEntityRepositoryLoadIgnoresCallerCancellation(t *testing.T) {
	loader := &blockingLoader{
		EntityLoader: NewStaticEntityLoader(sampleEntities()),
		gate:         make(chan struct{}),
		started:      make(chan struct{}, 1),
	}
	repo := NewEntityRepository(loader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := repo.Entities(ctx)
		done <- err
	}()
	<-loader.started
	cancel()
	close(loader.gate)

	if err := <-done; err != nil {
		t.Fatalf("expected shared load to complete, got %v", err)
	}
	got, err := repo.Entities(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("expected cached entities, got %+v err=%v", got, err)
	}
}

// blockingLoader holds each load until gate closes and fails if its context was canceled.
type blockingLoader struct {
	EntityLoader
	gate    chan struct{}
	started chan struct{}
}

func (l *blockingLoader) LoadEntities(ctx context.Context) ([]domain.Entity, error) {
	l.started <- struct{}{}
	<-l.gate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.EntityLoader.LoadEntities(ctx)
}

type countingLoader struct {
	EntityLoader
	mu        sync.Mutex
	calls     int
	failFirst bool
}

func (l *countingLoader) LoadEntities(ctx context.Context) ([]domain.Entity, error) {
	l.mu.Lock()
	l.calls++
	fail := l.failFirst && l.calls == 1
	l.mu.Unlock()
	if fail {
		return nil, errors.New("upstream unavailable")
	}
	return l.EntityLoader.LoadEntities(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleEntities() []domain.Entity {
	return []domain.Entity{
		{ID: 1, Name: "Belgium", Continent: "Europe", MediaRef: "https://flagcdn.com/be.svg", FavoriteCode: "BE"},
		{ID: 2, Name: "Kenya", Continent: "Africa", MediaRef: "https://flagcdn.com/ke.svg", FavoriteCode: "KE"},
	}
}
