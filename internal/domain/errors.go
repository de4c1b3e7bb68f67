package domain

import "errors"

var (
	// ErrInsufficientPool signals that fewer than four entities are eligible for a question.
	ErrInsufficientPool = errors.New("not enough entities to build a question")
	// ErrEntitiesFetch wraps failures of the entity list provider.
	ErrEntitiesFetch = errors.New("fetch entities failed")
	// ErrPoolLoading indicates the entity pool is still being fetched for the current identity.
	ErrPoolLoading = errors.New("entity pool is loading")
	// ErrFavoritesFetch wraps failures of the favorite store while listing codes.
	ErrFavoritesFetch = errors.New("fetch favorites failed")
	// ErrFavoriteWrite wraps failures of a remote favorite insert or delete.
	ErrFavoriteWrite = errors.New("persist favorite failed")
	// ErrNoSession is returned by operations that need an authenticated identity.
	ErrNoSession = errors.New("no active session")
	// ErrNotFavoritable is returned for entities without a favorite code.
	ErrNotFavoritable = errors.New("entity has no favorite code")
	// ErrNoActiveQuestion indicates the quiz is not waiting for an answer.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrStaleQuestion indicates an answer for a trial that is no longer current.
	ErrStaleQuestion = errors.New("question is no longer current")
	// ErrAlreadyAnswered indicates the current trial already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOptionNotFound indicates a submitted option ID is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEntityNotFound indicates an entity ID is absent from the current pool.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrClientNotFound is returned when a client handle is unknown.
	ErrClientNotFound = errors.New("client not found")
	// ErrUnauthenticated indicates a missing or invalid session token.
	ErrUnauthenticated = errors.New("unauthenticated")
)
