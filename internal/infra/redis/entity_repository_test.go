package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"floria-quiz-service/internal/domain"
	"floria-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestEntityRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{EntityLoader: memory.NewStaticEntityLoader(sampleEntities())}
	repo := NewEntityRepository(newClient(mr), loader, time.Minute)

	got, err := repo.Entities(context.Background())
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists(EntitiesKey) {
		t.Fatalf("expected %s to be set", EntitiesKey)
	}
	if ttl := mr.TTL(EntitiesKey); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %s", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.Entities(context.Background())
	if err != nil {
		t.Fatalf("entities 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if len(cached) != len(got) || cached[0] != got[0] {
		t.Fatalf("cached entities differ: %+v vs %+v", cached, got)
	}

	if err := repo.Invalidate(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := repo.Entities(context.Background()); err != nil {
		t.Fatalf("entities 3: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

func TestEntityRepositoryFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	loader := &countingLoader{EntityLoader: memory.NewStaticEntityLoader(sampleEntities())}
	repo := NewEntityRepository(client, loader, time.Minute)

	got, err := repo.Entities(context.Background())
	if err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected entities %+v", got)
	}
}

func TestEntityRepositoryPropagatesLoaderError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	boom := errors.New("upstream down")
	repo := NewEntityRepository(newClient(mr), failingLoader{err: boom}, time.Minute)
	if _, err := repo.Entities(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if mr.Exists(EntitiesKey) {
		t.Fatalf("failures must not be cached")
	}
}

func TestEntityRepositoryLoadIgnoresCallerCancellation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	loader := loaderFunc(func(ctx context.Context) ([]domain.Entity, error) {
		started <- struct{}{}
		<-gate
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return sampleEntities(), nil
	})
	repo := NewEntityRepository(newClient(mr), loader, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := repo.Entities(ctx)
		done <- err
	}()
	<-started
	cancel()
	close(gate)

	if err := <-done; err != nil {
		t.Fatalf("expected shared load to complete, got %v", err)
	}
	if !mr.Exists(EntitiesKey) {
		t.Fatalf("expected %s written despite the caller leaving", EntitiesKey)
	}
}

type loaderFunc func(ctx context.Context) ([]domain.Entity, error)

func (f loaderFunc) LoadEntities(ctx context.Context) ([]domain.Entity, error) {
	return f(ctx)
}

type countingLoader struct {
	memory.EntityLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadEntities(ctx context.Context) ([]domain.Entity, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.EntityLoader.LoadEntities(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type failingLoader struct{ err error }

func (l failingLoader) LoadEntities(context.Context) ([]domain.Entity, error) {
	return nil, l.err
}

func sampleEntities() []domain.Entity {
	return []domain.Entity{
		{ID: 1, Name: "Belgium", Continent: "Europe", MediaRef: "https://flagcdn.com/be.svg", FavoriteCode: "BE", Population: 11500000},
		{ID: 2, Name: "Kenya", Continent: "Africa", MediaRef: "https://flagcdn.com/ke.svg", FavoriteCode: "KE", Capital: "Nairobi"},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
