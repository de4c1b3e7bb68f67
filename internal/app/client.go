package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"floria-quiz-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Client owns the pool, favorites and quiz session of one connected host.
type Client struct {
	id        string
	pool      *EntityPool
	favorites *FavoriteSet
	quiz      *QuizSession
	logger    *slog.Logger

	mu       sync.Mutex
	identity domain.Identity
	epoch    uint64
	closed   bool
}

// NewClient wires the three owned state objects together.
func NewClient(id string, pool *EntityPool, favorites *FavoriteSet, quiz *QuizSession, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		id:        id,
		pool:      pool,
		favorites: favorites,
		quiz:      quiz,
		logger:    logger.With("client_id", id),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Identity returns the identity the client currently acts for.
func (c *Client) Identity() domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// SetIdentity switches the acting identity: pool and favorites are refetched concurrently and
// the quiz restarts on the new pool. Work started for a previous identity is discarded.
// Fetch failures are returned but the client stays usable; the pool error is also visible in PoolState.
func (c *Client) SetIdentity(ctx context.Context, identity domain.Identity) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrClientNotFound
	}
	c.epoch++
	epoch := c.epoch
	c.identity = identity
	c.mu.Unlock()

	c.quiz.Reset()

	var g errgroup.Group
	var poolErr, favErr error
	g.Go(func() error {
		_, poolErr = c.pool.Refresh(ctx, identity)
		return nil
	})
	g.Go(func() error {
		favErr = c.favorites.Load(ctx, identity)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch {
		return nil
	}
	if identity.Present() && poolErr == nil {
		if _, err := c.quiz.Restart(c.pool.QuizCandidates()); err != nil {
			c.logger.Warn("quiz cannot start", "user_id", identity.UserID, "error", err)
		}
	}
	return errors.Join(poolErr, favErr)
}

// Logout clears the identity, the pool and the favorites.
func (c *Client) Logout(ctx context.Context) error {
	return c.SetIdentity(ctx, domain.Identity{})
}

// State returns the quiz snapshot.
func (c *Client) State() domain.QuizState {
	return c.quiz.Snapshot()
}

// PoolState returns the pool summary.
func (c *Client) PoolState() domain.PoolState {
	return c.pool.State()
}

// Subscribe streams quiz state updates.
func (c *Client) Subscribe() (<-chan domain.QuizState, func()) {
	return c.quiz.Subscribe()
}

// Answer evaluates the chosen option of trial.
func (c *Client) Answer(trial, entityID int) (domain.AnswerResult, error) {
	return c.quiz.Evaluate(trial, entityID)
}

// Restart begins a new playthrough on the current pool.
func (c *Client) Restart() (domain.QuizState, error) {
	if !c.Identity().Present() {
		return c.quiz.Snapshot(), domain.ErrNoSession
	}
	if c.pool.Loading() {
		return c.quiz.Snapshot(), domain.ErrPoolLoading
	}
	if err := c.pool.Err(); err != nil {
		return c.quiz.Snapshot(), err
	}
	return c.quiz.Restart(c.pool.QuizCandidates())
}

// Narration returns the text to read out for a finished quiz.
func (c *Client) Narration() (string, bool) {
	state := c.quiz.Snapshot()
	if state.Outcome == nil {
		return "", false
	}
	return state.Outcome.Narration, true
}

// Search lists flagged entities matching query.
func (c *Client) Search(query string) []domain.Entity {
	return c.pool.Search(query)
}

func (c *Client) IsFavorite(entityID int) bool {
	return c.favorites.IsFavorite(entityID)
}

func (c *Client) Favorites() []domain.Entity {
	return c.favorites.Favorites()
}

// ToggleFavorite flips the favorite status of an entity of the current pool and waits for persistence.
func (c *Client) ToggleFavorite(ctx context.Context, entityID int) (domain.ToggleResult, error) {
	entity, ok := c.pool.Lookup(entityID)
	if !ok {
		return domain.ToggleResult{}, domain.ErrEntityNotFound
	}
	return c.favorites.Toggle(ctx, entity)
}

// ToggleFavoriteAsync flips the favorite status and persists it in the background.
func (c *Client) ToggleFavoriteAsync(ctx context.Context, entityID int) (domain.ToggleResult, <-chan domain.ToggleResult, error) {
	entity, ok := c.pool.Lookup(entityID)
	if !ok {
		return domain.ToggleResult{}, nil, domain.ErrEntityNotFound
	}
	return c.favorites.ToggleAsync(ctx, entity)
}

// Close cancels pending fetches and timers, closes subscriptions and waits for in-flight writes.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	c.mu.Unlock()

	c.pool.Invalidate()
	c.favorites.Invalidate()
	c.quiz.Close()
	c.favorites.Wait()
}
