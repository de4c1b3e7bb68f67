package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"floria-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// EntityLoader fetches the entity list from a backing source (HTTP API, database).
type EntityLoader interface {
	LoadEntities(ctx context.Context) ([]domain.Entity, error)
}

const entitiesKey = "entities"

// EntityRepository caches the entity list with TTL so reconnecting clients don't refetch it.
// Failed loads are never cached.
type EntityRepository struct {
	loader EntityLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	rnd       *rand.Rand
	entities  []domain.Entity
	expiresAt time.Time
	loaded    bool
}

func NewEntityRepository(loader EntityLoader, ttl time.Duration) *EntityRepository {
	return &EntityRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Entities implements app.EntitySource.
func (r *EntityRepository) Entities(ctx context.Context) ([]domain.Entity, error) {
	if entities, ok := r.cached(r.clock()); ok {
		return entities, nil
	}

	result, err, _ := r.sf.Do(entitiesKey, func() (interface{}, error) {
		now := r.clock()
		if entities, ok := r.cached(now); ok {
			return entities, nil
		}

		// Shared by every waiter; one caller leaving must not fail the others.
		entities, err := r.loader.LoadEntities(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.entities = entities
		r.expiresAt = now.Add(r.ttlWithJitterLocked())
		r.loaded = true
		r.mu.Unlock()
		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	return copyEntities(result.([]domain.Entity)), nil
}

// Invalidate forces the next call to hit the loader.
func (r *EntityRepository) Invalidate(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	return nil
}

func (r *EntityRepository) cached(now time.Time) ([]domain.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded || !r.expiresAt.After(now) {
		return nil, false
	}
	return copyEntities(r.entities), true
}

func (r *EntityRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func copyEntities(entities []domain.Entity) []domain.Entity {
	return append([]domain.Entity(nil), entities...)
}

// StaticEntityLoader serves a fixed list (useful for tests/demos).
type StaticEntityLoader struct {
	entities []domain.Entity
}

func NewStaticEntityLoader(entities []domain.Entity) *StaticEntityLoader {
	return &StaticEntityLoader{entities: copyEntities(entities)}
}

func (l *StaticEntityLoader) LoadEntities(context.Context) ([]domain.Entity, error) {
	return copyEntities(l.entities), nil
}
