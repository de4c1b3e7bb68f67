package http

import (
	"errors"
	"net/http"

	"floria-quiz-service/internal/domain"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrUnauthenticated, "unauthenticated", http.StatusUnauthorized},
	{domain.ErrNoSession, "no_session", http.StatusUnauthorized},
	{domain.ErrNotFavoritable, "not_favoritable", http.StatusBadRequest},
	{domain.ErrEntityNotFound, "entity_not_found", http.StatusNotFound},
	{domain.ErrClientNotFound, "client_not_found", http.StatusNotFound},
	{domain.ErrInsufficientPool, "insufficient_pool", http.StatusConflict},
	{domain.ErrPoolLoading, "pool_loading", http.StatusConflict},
	{domain.ErrNoActiveQuestion, "no_active_question", http.StatusConflict},
	{domain.ErrStaleQuestion, "stale_question", http.StatusConflict},
	{domain.ErrAlreadyAnswered, "already_answered", http.StatusConflict},
	{domain.ErrOptionNotFound, "option_not_found", http.StatusBadRequest},
	{domain.ErrEntitiesFetch, "entities_unavailable", http.StatusBadGateway},
	{domain.ErrFavoritesFetch, "favorites_unavailable", http.StatusBadGateway},
	{domain.ErrFavoriteWrite, "favorite_write_failed", http.StatusBadGateway},
}

// errorBody maps a domain error onto a stable code; joined errors report their first known cause.
func errorBody(err error) errorPayload {
	code, _ := classify(err)
	return errorPayload{Code: code, Message: err.Error()}
}

func statusFor(err error) int {
	_, status := classify(err)
	return status
}

func classify(err error) (string, int) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code, e.status
		}
	}
	return "internal", http.StatusInternalServerError
}
