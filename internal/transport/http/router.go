package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/presence-relay/internal/transport/http/middleware"
	"github.com/cwrk-planet/presence-relay/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	AllowedOrigins []string
	// StaticDir, when set, is served at / (the chat page and its assets).
	StaticDir string
}

func NewRouter(h *Handler, wsServer *ws.Server, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httpmw.RequestLogger)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	// WS endpoint, no timeout: sessions are long-lived
	r.Get("/ws", wsServer.HandleWS)

	r.Route("/api", func(ar chi.Router) {
		ar.Use(middlewareChi.Timeout(10 * time.Second))
		ar.Get("/participants", h.ListParticipants)
	})

	// health
	r.Get("/healthz", h.Health)

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}
