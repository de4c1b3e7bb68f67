package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"floria-quiz-service/internal/app"
	"floria-quiz-service/internal/auth"
	"floria-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type identityKey struct{}

// RESTHandler serves the stateless country and favorites endpoints.
type RESTHandler struct {
	service  *app.Service
	verifier auth.Verifier
	logger   *slog.Logger
}

func NewRESTHandler(service *app.Service, verifier auth.Verifier, logger *slog.Logger) *RESTHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTHandler{service: service, verifier: verifier, logger: logger}
}

// Authenticate resolves the bearer token and rejects requests without an identity.
func (h *RESTHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.verifier.Verify(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
		if err == nil && !identity.Present() {
			err = domain.ErrNoSession
		}
		if err != nil {
			h.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *RESTHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.Countries(r.Context(), identityFrom(r), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countriesResult{Query: r.URL.Query().Get("q"), Countries: countries})
}

func (h *RESTHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.Favorites(r.Context(), identityFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	codes := make([]string, 0, len(countries))
	for _, c := range countries {
		codes = append(codes, c.FavoriteCode)
	}
	writeJSON(w, http.StatusOK, favoritesPayload{Codes: codes, Countries: countries})
}

func (h *RESTHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

func (h *RESTHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

func (h *RESTHandler) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if err := h.service.SetFavorite(r.Context(), identityFrom(r), code, favorite); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorBody(err))
}

func identityFrom(r *http.Request) domain.Identity {
	identity, _ := r.Context().Value(identityKey{}).(domain.Identity)
	return identity
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
