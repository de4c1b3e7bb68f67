package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Metrics is the slice of telemetry the router needs.
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// NewRouter mounts the websocket endpoint, the REST API, health and metrics.
func NewRouter(ws *WSHandler, rest *RESTHandler, metrics Metrics) http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	if metrics != nil {
		mux.Use(metrics.Middleware)
		mux.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/ws", ws.ServeWS)

	mux.Route("/v1", func(r chi.Router) {
		r.Use(rest.Authenticate)
		r.Get("/countries", rest.ListCountries)
		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", rest.ListFavorites)
			r.Put("/{code}", rest.AddFavorite)
			r.Delete("/{code}", rest.RemoveFavorite)
		})
	})

	return mux
}
