package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authHandler "github.com/livepaste/backend/internal/handler/auth"
	sessionHandler "github.com/livepaste/backend/internal/handler/session"
	middlewarePkg "github.com/livepaste/backend/internal/middleware"
	"github.com/livepaste/backend/internal/realtime"
	authService "github.com/livepaste/backend/internal/service/auth"
	sessionService "github.com/livepaste/backend/internal/service/session"
	"github.com/livepaste/backend/internal/service/storage"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(registry *sessionService.Registry, hub *realtime.Hub, files *storage.FileStore, authSvc *authService.Service, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	sessions := sessionHandler.New(registry, files, hub)
	login := authHandler.New(authSvc)
	requireAuth := middlewarePkg.RequireAuth(authSvc)

	r.Route("/api", func(api chi.Router) {
		login.RegisterRoutes(api)
		sessions.RegisterRoutes(api, requireAuth)
	})

	// Realtime channel, one subscriber group per passphrase.
	r.Get("/ws/{passphrase}", sessions.HandleWebSocket)

	// Serve the frontend and uploaded files from the static directory.
	fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	r.Get("/static/*", fileServer.ServeHTTP)

	return r
}
