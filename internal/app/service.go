package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"floria-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger handed to every client.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithClientSettleDelay sets the settle delay of every quiz session.
func WithClientSettleDelay(d time.Duration) ServiceOption {
	return func(s *Service) { s.settle = d }
}

// WithFavoriteRollback enables rollback of failed favorite writes.
func WithFavoriteRollback(enabled bool) ServiceOption {
	return func(s *Service) { s.rollback = enabled }
}

// WithRandSource provides the PRNG factory for new clients (seeded in tests).
func WithRandSource(newRand func() *rand.Rand) ServiceOption {
	return func(s *Service) { s.newRand = newRand }
}

// WithClientIDs overrides the client ID generator.
func WithClientIDs(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

// Service contains the quiz and favorites use cases shared by all transports.
type Service struct {
	clients   ClientRegistry
	entities  EntitySource
	favorites FavoriteStore
	logger    *slog.Logger
	recorder  Recorder
	settle    time.Duration
	rollback  bool
	newRand   func() *rand.Rand
	newID     func() string
}

func NewService(clients ClientRegistry, entities EntitySource, favorites FavoriteStore, opts ...ServiceOption) *Service {
	s := &Service{
		clients:   clients,
		entities:  entities,
		favorites: favorites,
		logger:    slog.Default(),
		recorder:  NopRecorder{},
		settle:    DefaultSettleDelay,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect registers a new client and loads its state for identity.
// The client is returned even when the initial fetches fail.
func (s *Service) Connect(ctx context.Context, identity domain.Identity) (*Client, error) {
	id := s.newID()
	logger := s.logger
	pool := NewEntityPool(s.entities, logger, s.recorder)
	favorites := NewFavoriteSet(s.favorites, pool, logger,
		WithRollbackOnFailure(s.rollback),
		WithFavoriteRecorder(s.recorder),
	)
	quiz := NewQuizSession(NewGenerator(s.newRand()),
		WithSettleDelay(s.settle),
		WithQuizRecorder(s.recorder),
	)
	client := NewClient(id, pool, favorites, quiz, logger)

	s.clients.Put(client)
	s.recorder.ClientConnected()

	err := client.SetIdentity(ctx, identity)
	return client, err
}

// Disconnect closes the client and drops it from the registry.
func (s *Service) Disconnect(clientID string) {
	client, ok := s.clients.Get(clientID)
	if !ok {
		return
	}
	client.Close()
	s.clients.Delete(clientID)
	s.recorder.ClientDisconnected()
}

// Connected reports the number of registered clients.
func (s *Service) Connected() int {
	return s.clients.Len()
}

// Countries lists flagged entities matching query for an authenticated caller.
func (s *Service) Countries(ctx context.Context, identity domain.Identity, query string) ([]domain.Entity, error) {
	if !identity.Present() {
		return nil, domain.ErrNoSession
	}
	entities, err := s.entities.Entities(ctx)
	if err != nil {
		s.recorder.FetchFailed("entities")
		return nil, fmt.Errorf("%w: %w", domain.ErrEntitiesFetch, err)
	}
	return SearchEntities(entities, query), nil
}

// Favorites lists the favorited entities of identity straight from the store.
func (s *Service) Favorites(ctx context.Context, identity domain.Identity) ([]domain.Entity, error) {
	if !identity.Present() {
		return nil, domain.ErrNoSession
	}
	codes, err := s.favorites.ListCodes(ctx, identity.UserID)
	if err != nil {
		s.recorder.FetchFailed("favorites")
		return nil, fmt.Errorf("%w: %w", domain.ErrFavoritesFetch, err)
	}
	entities, err := s.entities.Entities(ctx)
	if err != nil {
		s.recorder.FetchFailed("entities")
		return nil, fmt.Errorf("%w: %w", domain.ErrEntitiesFetch, err)
	}
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	out := make([]domain.Entity, 0, len(codes))
	for _, e := range entities {
		if _, ok := set[e.FavoriteCode]; ok && e.FavoriteCode != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// SetFavorite stores or removes a favorite code for identity without a client.
func (s *Service) SetFavorite(ctx context.Context, identity domain.Identity, code string, favorite bool) error {
	if !identity.Present() {
		return domain.ErrNoSession
	}
	if code == "" {
		return domain.ErrNotFavoritable
	}
	var err error
	if favorite {
		err = s.favorites.Insert(ctx, identity.UserID, code)
	} else {
		err = s.favorites.Delete(ctx, identity.UserID, code)
	}
	if err != nil {
		s.recorder.FavoriteToggled(domain.ToggleFailed)
		return fmt.Errorf("%w: %w", domain.ErrFavoriteWrite, err)
	}
	s.recorder.FavoriteToggled(domain.ToggleConfirmed)
	return nil
}
