// Package api wires the HTTP surface: the org-scoped campaign endpoints
// and the public tracker routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/campaign-engine/internal/tracker"
)

// Server is the engine's HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
}

// NewServer assembles the full route tree. The tracker routes are public
// (mail clients hit them); the /api routes require the trusted org header.
func NewServer(h *Handlers, trackerHandler *tracker.Handler) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", OrgHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/tracker", trackerHandler.Routes())

	r.Route("/api", func(api chi.Router) {
		api.Use(RequireOrg)
		api.Post("/campaigns", h.CreateCampaign)
		api.Get("/campaigns", h.ListCampaigns)
		api.Put("/campaigns/{id}", h.UpdateCampaign)
		api.Post("/campaigns/{id}/send", h.SendCampaign)
	})

	return &Server{router: r}
}

// Router exposes the route tree, used by tests.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
