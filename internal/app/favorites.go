package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"floria-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// PoolReader is the read-only view of the entity pool the favorite set resolves IDs against.
type PoolReader interface {
	Lookup(id int) (domain.Entity, bool)
	Entities() []domain.Entity
}

// FavoriteOption customizes a FavoriteSet.
type FavoriteOption func(*FavoriteSet)

// WithRollbackOnFailure restores the previous membership when a remote write fails.
// Without it the optimistic state is kept and only the toggle status records the failure.
func WithRollbackOnFailure(enabled bool) FavoriteOption {
	return func(fs *FavoriteSet) { fs.rollback = enabled }
}

// WithToggleIDs overrides the toggle ID generator.
func WithToggleIDs(newID func() string) FavoriteOption {
	return func(fs *FavoriteSet) { fs.newID = newID }
}

// WithFavoriteRecorder reports toggles, stale loads and fetch failures.
func WithFavoriteRecorder(r Recorder) FavoriteOption {
	return func(fs *FavoriteSet) { fs.recorder = r }
}

// FavoriteSet caches the favorite codes of the current identity and syncs toggles to a FavoriteStore.
type FavoriteSet struct {
	store    FavoriteStore
	pool     PoolReader
	logger   *slog.Logger
	recorder Recorder
	rollback bool
	newID    func() string

	mu         sync.RWMutex
	identity   domain.Identity
	generation uint64
	codes      map[string]struct{}
	toggles    map[string]domain.ToggleResult
	err        error

	inflight sync.WaitGroup
}

func NewFavoriteSet(store FavoriteStore, pool PoolReader, logger *slog.Logger, opts ...FavoriteOption) *FavoriteSet {
	if logger == nil {
		logger = slog.Default()
	}
	fs := &FavoriteSet{
		store:    store,
		pool:     pool,
		logger:   logger,
		recorder: NopRecorder{},
		newID:    uuid.NewString,
		codes:    make(map[string]struct{}),
		toggles:  make(map[string]domain.ToggleResult),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Load replaces the cached codes with the ones stored for identity.
// A different or absent identity clears the set synchronously, before any fetch. A failed
// reload of the same identity keeps the current codes and returns an error wrapping
// domain.ErrFavoritesFetch. Results of superseded loads are dropped.
func (fs *FavoriteSet) Load(ctx context.Context, identity domain.Identity) error {
	fs.mu.Lock()
	fs.generation++
	gen := fs.generation
	if !identity.Present() || identity.UserID != fs.identity.UserID {
		fs.codes = make(map[string]struct{})
		fs.toggles = make(map[string]domain.ToggleResult)
		fs.err = nil
	}
	fs.identity = identity
	if !identity.Present() {
		fs.mu.Unlock()
		return nil
	}
	fs.mu.Unlock()

	codes, err := fs.store.ListCodes(ctx, identity.UserID)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if gen != fs.generation {
		fs.recorder.StaleResponseDropped("favorites")
		fs.logger.Debug("dropping superseded favorites fetch", "user_id", identity.UserID)
		return nil
	}
	if err != nil {
		fs.err = fmt.Errorf("%w: %w", domain.ErrFavoritesFetch, err)
		fs.recorder.FetchFailed("favorites")
		fs.logger.Error("fetch favorites", "user_id", identity.UserID, "error", err)
		return fs.err
	}

	next := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		next[code] = struct{}{}
	}
	fs.codes = next
	fs.toggles = make(map[string]domain.ToggleResult)
	fs.err = nil
	return nil
}

// Invalidate makes any in-flight Load stale.
func (fs *FavoriteSet) Invalidate() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.generation++
}

// IsFavorite resolves entityID through the pool and reports whether its code is in the set.
func (fs *FavoriteSet) IsFavorite(entityID int) bool {
	entity, ok := fs.pool.Lookup(entityID)
	if !ok || entity.FavoriteCode == "" {
		return false
	}
	return fs.Has(entity.FavoriteCode)
}

// Has reports membership of a raw code.
func (fs *FavoriteSet) Has(code string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.codes[code]
	return ok
}

// Codes returns the cached codes in sorted order.
func (fs *FavoriteSet) Codes() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, 0, len(fs.codes))
	for code := range fs.codes {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Favorites is the pool filtered to favorited entities.
func (fs *FavoriteSet) Favorites() []domain.Entity {
	entities := fs.pool.Entities()
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]domain.Entity, 0, len(fs.codes))
	for _, e := range entities {
		if e.FavoriteCode == "" {
			continue
		}
		if _, ok := fs.codes[e.FavoriteCode]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Status returns the latest toggle recorded for code.
func (fs *FavoriteSet) Status(code string) (domain.ToggleResult, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	res, ok := fs.toggles[code]
	return res, ok
}

// Err returns the last favorites fetch failure, if any.
func (fs *FavoriteSet) Err() error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.err
}

// Toggle flips membership optimistically, then persists it and returns the final status.
// Remote failures are reported through ToggleResult.State, not the error.
func (fs *FavoriteSet) Toggle(ctx context.Context, entity domain.Entity) (domain.ToggleResult, error) {
	call, err := fs.apply(entity)
	if err != nil {
		return domain.ToggleResult{}, err
	}
	fs.inflight.Add(1)
	defer fs.inflight.Done()
	return fs.commit(ctx, call), nil
}

// ToggleAsync flips membership optimistically and persists it in the background.
// The returned result is the pending state; the channel yields the final one.
func (fs *FavoriteSet) ToggleAsync(ctx context.Context, entity domain.Entity) (domain.ToggleResult, <-chan domain.ToggleResult, error) {
	call, err := fs.apply(entity)
	if err != nil {
		return domain.ToggleResult{}, nil, err
	}
	done := make(chan domain.ToggleResult, 1)
	fs.inflight.Add(1)
	go func() {
		defer fs.inflight.Done()
		done <- fs.commit(context.WithoutCancel(ctx), call)
		close(done)
	}()
	return call.result, done, nil
}

// Wait blocks until every in-flight remote write finished.
func (fs *FavoriteSet) Wait() {
	fs.inflight.Wait()
}

type toggleCall struct {
	result      domain.ToggleResult
	userID      string
	wasFavorite bool
	generation  uint64
}

func (fs *FavoriteSet) apply(entity domain.Entity) (toggleCall, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.identity.Present() {
		return toggleCall{}, domain.ErrNoSession
	}
	code := strings.TrimSpace(entity.FavoriteCode)
	if code == "" {
		return toggleCall{}, domain.ErrNotFavoritable
	}

	_, was := fs.codes[code]
	if was {
		delete(fs.codes, code)
	} else {
		fs.codes[code] = struct{}{}
	}

	res := domain.ToggleResult{
		ID:       fs.newID(),
		Code:     code,
		EntityID: entity.ID,
		Favorite: !was,
		State:    domain.TogglePending,
	}
	fs.toggles[code] = res
	return toggleCall{
		result:      res,
		userID:      fs.identity.UserID,
		wasFavorite: was,
		generation:  fs.generation,
	}, nil
}

func (fs *FavoriteSet) commit(ctx context.Context, call toggleCall) domain.ToggleResult {
	code := call.result.Code
	var err error
	if call.wasFavorite {
		err = fs.store.Delete(ctx, call.userID, code)
	} else {
		err = fs.store.Insert(ctx, call.userID, code)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	res := call.result
	current, tracked := fs.toggles[code]
	latest := fs.generation == call.generation && tracked && current.ID == res.ID

	if err != nil {
		res.State = domain.ToggleFailed
		res.Error = fmt.Errorf("%w: %w", domain.ErrFavoriteWrite, err).Error()
		fs.logger.Error("persist favorite", "user_id", call.userID, "code", code, "favorite", res.Favorite, "error", err)
		if fs.rollback && latest {
			if call.wasFavorite {
				fs.codes[code] = struct{}{}
			} else {
				delete(fs.codes, code)
			}
			res.Favorite = call.wasFavorite
			res.RolledBack = true
		}
	} else {
		res.State = domain.ToggleConfirmed
	}
	fs.recorder.FavoriteToggled(res.State)

	if latest {
		fs.toggles[code] = res
	}
	return res
}
