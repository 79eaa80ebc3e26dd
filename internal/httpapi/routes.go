package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/impostor-party/server/internal/session"
	"github.com/impostor-party/server/internal/store"
	"github.com/impostor-party/server/internal/ws"
)

// SetupRoutes wires the REST surface and the websocket endpoint.
func SetupRoutes(coord *session.Coordinator, st *store.Store, log *zap.Logger, corsOrigin string, wsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors(corsOrigin))

	r.Get("/healthz", Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/wordpacks", WordPacks)
		r.Get("/wordpacks/random", RandomWord)
		r.Get("/players/{id}", GetPlayer(st, log))
		r.Patch("/players/{id}", PatchPlayer(st, log))
	})

	r.Get("/ws", ws.Handler(coord, log, wsOrigins))
	return r
}

// cors answers preflights and stamps the configured origin on API responses.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, PATCH, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Player-Id")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
