package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"floria-quiz-service/internal/app"
	"floria-quiz-service/internal/auth"
	"floria-quiz-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.Service
	verifier auth.Verifier
	logger   *slog.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Service, verifier auth.Verifier, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service:  service,
		verifier: verifier,
		logger:   logger,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loginPayload struct {
	Token string `json:"token" validate:"required"`
}

type answerPayload struct {
	Trial    int `json:"trial" validate:"gte=1,lte=10"`
	EntityID int `json:"entityId" validate:"gte=1"`
}

type togglePayload struct {
	EntityID int `json:"entityId" validate:"gte=1"`
}

type countriesPayload struct {
	Query string `json:"query" validate:"max=100"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type favoritesPayload struct {
	Codes     []string        `json:"codes"`
	Countries []domain.Entity `json:"countries"`
	Error     string          `json:"error,omitempty"`
}

type countriesResult struct {
	Query     string          `json:"query"`
	Countries []domain.Entity `json:"countries"`
}

type narrationPayload struct {
	Text string `json:"text"`
}

// ServeWS upgrades HTTP requests to websockets and binds one app.Client to the connection.
// The token query parameter is optional; without it the client starts without an identity.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	client, connectErr := h.service.Connect(ctx, identity)
	defer h.service.Disconnect(client.ID())
	logger := h.logger.With("client_id", client.ID())

	updates, cancel := client.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var toggles sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	// emit never blocks past connection teardown.
	emit := func(msgType string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
		case <-closeSignals:
		}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if connectErr != nil {
		emit("error", errorBody(connectErr))
	}
	emit("pool", client.PoolState())
	emit("favorites", favoritesOf(client, nil))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "login":
			var payload loginPayload
			if !h.decode(inbound.Payload, &payload, emit) {
				continue
			}
			next, err := h.verifier.Verify(ctx, payload.Token)
			if err != nil {
				emit("error", errorBody(err))
				continue
			}
			h.switchIdentity(ctx, client, next, emit)
		case "logout":
			h.switchIdentity(ctx, client, domain.Identity{}, emit)
		case "answer":
			var payload answerPayload
			if !h.decode(inbound.Payload, &payload, emit) {
				continue
			}
			result, err := client.Answer(payload.Trial, payload.EntityID)
			if err != nil {
				emit("error", errorBody(err))
				continue
			}
			emit("answerResult", result)
		case "restart":
			if _, err := client.Restart(); err != nil {
				emit("error", errorBody(err))
			}
		case "toggleFavorite":
			var payload togglePayload
			if !h.decode(inbound.Payload, &payload, emit) {
				continue
			}
			pending, done, err := client.ToggleFavoriteAsync(ctx, payload.EntityID)
			if err != nil {
				emit("error", errorBody(err))
				continue
			}
			emit("favoriteToggled", pending)
			toggles.Add(1)
			go func() {
				defer toggles.Done()
				if final, ok := <-done; ok {
					emit("favoriteSynced", final)
				}
			}()
		case "favorites":
			emit("favorites", favoritesOf(client, nil))
		case "countries":
			var payload countriesPayload
			if !h.decode(inbound.Payload, &payload, emit) {
				continue
			}
			emit("countries", countriesResult{Query: payload.Query, Countries: client.Search(payload.Query)})
		case "speak":
			text, ok := client.Narration()
			if !ok {
				emit("error", errorBody(domain.ErrNoActiveQuestion))
				continue
			}
			emit("narration", narrationPayload{Text: text})
		default:
			emit("error", errorPayload{Code: "unsupported", Message: "unsupported message type"})
		}
	}

	close(closeSignals)
	<-updatesDone
	toggles.Wait()
	close(send)
	<-writerDone
}

func (h *WSHandler) switchIdentity(ctx context.Context, client *app.Client, identity domain.Identity, emit func(string, any)) {
	err := client.SetIdentity(ctx, identity)
	if err != nil {
		emit("error", errorBody(err))
	}
	emit("pool", client.PoolState())
	if !errors.Is(err, domain.ErrFavoritesFetch) {
		err = nil
	}
	emit("favorites", favoritesOf(client, err))
}

// decode unmarshals and validates a payload, emitting an error frame on failure.
func (h *WSHandler) decode(raw json.RawMessage, dst any, emit func(string, any)) bool {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			emit("error", errorPayload{Code: "invalid_payload", Message: "invalid payload"})
			return false
		}
	}
	if err := h.validate.Struct(dst); err != nil {
		emit("error", errorPayload{Code: "invalid_payload", Message: err.Error()})
		return false
	}
	return true
}

func favoritesOf(client *app.Client, loadErr error) favoritesPayload {
	countries := client.Favorites()
	codes := make([]string, 0, len(countries))
	for _, c := range countries {
		codes = append(codes, c.FavoriteCode)
	}
	payload := favoritesPayload{Codes: codes, Countries: countries}
	if loadErr != nil {
		payload.Error = loadErr.Error()
	}
	return payload
}
