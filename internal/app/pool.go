package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"floria-quiz-service/internal/domain"
)

// EntityPool holds the entity snapshot fetched for the current identity.
// A refresh replaces the snapshot wholesale; results of superseded refreshes are dropped.
type EntityPool struct {
	source   EntitySource
	logger   *slog.Logger
	recorder Recorder

	mu         sync.RWMutex
	generation uint64
	identity   domain.Identity
	entities   []domain.Entity
	byID       map[int]int
	loading    bool
	err        error
}

func NewEntityPool(source EntitySource, logger *slog.Logger, recorder Recorder) *EntityPool {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &EntityPool{
		source:   source,
		logger:   logger,
		recorder: recorder,
		byID:     make(map[int]int),
	}
}

// Refresh fetches a new snapshot for identity. An absent identity clears the pool; a different
// identity clears it before fetching, so nothing resolves against the previous snapshot.
// applied is false when a newer Refresh or Invalidate superseded this call.
// On fetch failure the pool is emptied and the error, wrapping domain.ErrEntitiesFetch, is kept.
func (p *EntityPool) Refresh(ctx context.Context, identity domain.Identity) (applied bool, err error) {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	if !identity.Present() || identity.UserID != p.identity.UserID {
		p.replaceLocked(nil)
		p.err = nil
	}
	p.identity = identity
	if !identity.Present() {
		p.loading = false
		p.mu.Unlock()
		return true, nil
	}
	p.loading = true
	p.mu.Unlock()

	entities, fetchErr := p.source.Entities(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		p.recorder.StaleResponseDropped("entities")
		p.logger.Debug("dropping superseded entity fetch", "user_id", identity.UserID)
		return false, nil
	}
	p.loading = false
	if fetchErr != nil {
		p.replaceLocked(nil)
		p.err = fmt.Errorf("%w: %w", domain.ErrEntitiesFetch, fetchErr)
		p.recorder.FetchFailed("entities")
		p.logger.Error("fetch entities", "user_id", identity.UserID, "error", fetchErr)
		return true, p.err
	}
	p.replaceLocked(entities)
	p.err = nil
	return true, nil
}

// Invalidate makes any in-flight refresh stale without touching the current snapshot.
func (p *EntityPool) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.loading = false
}

// Entities returns a copy of the snapshot.
func (p *EntityPool) Entities() []domain.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.Entity(nil), p.entities...)
}

// Lookup resolves an entity ID within the current snapshot.
func (p *EntityPool) Lookup(id int) (domain.Entity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx, ok := p.byID[id]
	if !ok {
		return domain.Entity{}, false
	}
	return p.entities[idx], true
}

// Loading reports whether a refresh is in flight.
func (p *EntityPool) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// QuizCandidates returns the entities that have a usable flag.
func (p *EntityPool) QuizCandidates() []domain.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return usableEntities(p.entities)
}

// Search returns flagged entities sorted by name whose name contains query (case-insensitive).
func (p *EntityPool) Search(query string) []domain.Entity {
	return SearchEntities(p.Entities(), query)
}

// Err returns the last fetch failure, if any.
func (p *EntityPool) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// State summarizes the pool for hosts.
func (p *EntityPool) State() domain.PoolState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	state := domain.PoolState{
		Size:    len(p.entities),
		Usable:  len(usableEntities(p.entities)),
		Loading: p.loading,
	}
	if p.err != nil {
		state.Error = p.err.Error()
	}
	return state
}

func (p *EntityPool) replaceLocked(entities []domain.Entity) {
	p.entities = append([]domain.Entity(nil), entities...)
	p.byID = make(map[int]int, len(p.entities))
	for i, e := range p.entities {
		if _, dup := p.byID[e.ID]; !dup {
			p.byID[e.ID] = i
		}
	}
}

func usableEntities(entities []domain.Entity) []domain.Entity {
	out := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		if e.HasUsableMedia() {
			out = append(out, e)
		}
	}
	return out
}

// SearchEntities filters flagged entities by name and sorts them alphabetically.
func SearchEntities(entities []domain.Entity, query string) []domain.Entity {
	out := usableEntities(entities)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out
	}
	filtered := out[:0]
	for _, e := range out {
		if strings.Contains(strings.ToLower(e.Name), q) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
