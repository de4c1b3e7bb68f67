package memory

import (
	"sync"

	"floria-quiz-service/internal/app"
)

// ClientRegistry is an in-memory implementation of app.ClientRegistry.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*app.Client
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*app.Client),
	}
}

func (r *ClientRegistry) Put(client *app.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID()] = client
}

func (r *ClientRegistry) Get(clientID string) (*app.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[clientID]
	return client, ok
}

func (r *ClientRegistry) Delete(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
}

func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
