package app

import (
	"context"

	"floria-quiz-service/internal/domain"
)

// EntitySource fetches the current entity snapshot (HTTP API, database, cache).
type EntitySource interface {
	Entities(ctx context.Context) ([]domain.Entity, error)
}

// FavoriteStore persists favorite codes per user.
// Insert must be idempotent and Delete must tolerate missing rows.
type FavoriteStore interface {
	ListCodes(ctx context.Context, userID string) ([]string, error)
	Insert(ctx context.Context, userID, code string) error
	Delete(ctx context.Context, userID, code string) error
}

// ClientRegistry abstracts where connected clients are tracked (in-memory, Redis, etc).
type ClientRegistry interface {
	Put(client *Client)
	Get(clientID string) (*Client, bool)
	Delete(clientID string)
	Len() int
}

// Recorder receives domain events for metrics.
type Recorder interface {
	QuestionGenerated()
	AnswerEvaluated(correct bool)
	SessionFinished(tier domain.Tier)
	FavoriteToggled(state domain.ToggleState)
	StaleResponseDropped(kind string)
	FetchFailed(kind string)
	ClientConnected()
	ClientDisconnected()
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) QuestionGenerated()                 {}
func (NopRecorder) AnswerEvaluated(bool)               {}
func (NopRecorder) SessionFinished(domain.Tier)        {}
func (NopRecorder) FavoriteToggled(domain.ToggleState) {}
func (NopRecorder) StaleResponseDropped(string)        {}
func (NopRecorder) FetchFailed(string)                 {}
func (NopRecorder) ClientConnected()                   {}
func (NopRecorder) ClientDisconnected()                {}
