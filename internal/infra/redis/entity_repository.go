package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"floria-quiz-service/internal/domain"
	"floria-quiz-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// EntitiesKey holds the cached entity list as a JSON array.
const EntitiesKey = "floria:entities"

// EntityRepository caches the entity list in Redis and falls back to a loader on cache miss.
// A Redis outage degrades to loading straight from the loader.
type EntityRepository struct {
	client *redis.Client
	loader memory.EntityLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewEntityRepository(client *redis.Client, loader memory.EntityLoader, ttl time.Duration) *EntityRepository {
	return &EntityRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Entities implements app.EntitySource.
func (r *EntityRepository) Entities(ctx context.Context) ([]domain.Entity, error) {
	if entities, ok := r.cached(ctx); ok {
		return entities, nil
	}

	result, err, _ := r.sf.Do(EntitiesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if entities, ok := r.cached(ctx); ok {
			return entities, nil
		}

		loadCtx := context.WithoutCancel(ctx)
		entities, err := r.loader.LoadEntities(loadCtx)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(entities); err == nil {
			_ = r.client.Set(loadCtx, EntitiesKey, raw, r.ttlWithJitter()).Err()
		}
		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Entity(nil), result.([]domain.Entity)...), nil
}

// Invalidate drops the cached list.
func (r *EntityRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, EntitiesKey).Err()
}

func (r *EntityRepository) cached(ctx context.Context) ([]domain.Entity, bool) {
	raw, err := r.client.Get(ctx, EntitiesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var entities []domain.Entity
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, false
	}
	return entities, true
}

func (r *EntityRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
