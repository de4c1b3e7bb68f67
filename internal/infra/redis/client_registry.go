package redis

import (
	"context"
	"sync"
	"time"

	"floria-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// ClientRegistry is a Redis-aware implementation of app.ClientRegistry.
// Clients live in a local map since they hold in-process state; Redis only carries
// a liveness key per client (floria:client:{id}) so other instances can count connections.
type ClientRegistry struct {
	client *redis.Client
	ttl    time.Duration

	mu      sync.RWMutex
	clients map[string]*app.Client
}

func NewClientRegistry(client *redis.Client, ttl time.Duration) *ClientRegistry {
	return &ClientRegistry{
		client:  client,
		ttl:     ttl,
		clients: make(map[string]*app.Client),
	}
}

func (r *ClientRegistry) Put(c *app.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(c.ID()), c.Identity().UserID, r.ttl).Err()
}

func (r *ClientRegistry) Get(clientID string) (*app.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientID]
	return c, ok
}

func (r *ClientRegistry) Delete(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	_ = r.client.Del(context.Background(), r.key(clientID)).Err()
}

func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// TouchAll refreshes the liveness markers of every local client in one pipeline.
func (r *ClientRegistry) TouchAll(ctx context.Context) error {
	r.mu.RLock()
	pipe := r.client.Pipeline()
	for id, c := range r.clients {
		pipe.Set(ctx, r.key(id), c.Identity().UserID, r.ttl)
	}
	r.mu.RUnlock()
	if pipe.Len() == 0 {
		return nil
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *ClientRegistry) key(clientID string) string {
	return "floria:client:" + clientID
}
