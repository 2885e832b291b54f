// Package router sets up all HTTP routes and middleware chains for the
// TempleDesk API. Routes are grouped into a public surface (health,
// booking verification) and an authenticated back-office surface.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"templedesk/internal/handlers"
	"templedesk/internal/middleware"
	"templedesk/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, nodes *handlers.Nodes, slots *handlers.Slots, bookings *handlers.Bookings, settings *handlers.Settings, auth *handlers.Auth) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth.
	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints — login is rate-limited to slow brute force.
		loginLimiter := middleware.NewRateLimiter(10, time.Minute)
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)

			// 2FA — requires auth but NOT completed 2FA.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/2fa/setup", auth.Setup2FA)
				r.Post("/2fa/verify", auth.Verify2FA)
			})
		})

		// Ticket verification — used at the temple gate by scanner devices.
		// Authenticated but open to clerks without 2FA hardware.
		r.With(middleware.RequireAuth).Post("/bookings/verify", bookings.Verify)

		// Authenticated + 2FA-verified back-office area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			// Hierarchy nodes
			r.Route("/nodes", func(r chi.Router) {
				r.Get("/", nodes.List)
				r.Get("/tree", nodes.Tree)
				r.Post("/", nodes.Create)
				r.Get("/{id}", nodes.Get)
				r.Put("/{id}", nodes.Update)
				r.Delete("/{id}", nodes.Delete)
				r.Get("/{id}/children", nodes.Children)
				r.Post("/{id}/reparent", nodes.Reparent)
				r.Post("/{id}/toggle", nodes.ToggleActive)
				r.Get("/{id}/statistics", nodes.Statistics)

				// Slots under a node
				r.Get("/{id}/slots", slots.ListByNode)
				r.Post("/{id}/slots", slots.Create)
			})

			// Slots
			r.Route("/slots", func(r chi.Router) {
				r.Post("/{id}/occupancy", slots.SetOccupancy)
				r.Delete("/{id}", slots.Delete)
			})

			// Bookings
			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", bookings.Create)
				r.Get("/{id}", bookings.Get)
				r.Post("/{id}/cancel", bookings.Cancel)
			})

			// Settings — admin only
			r.Route("/settings", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", settings.List)
				r.Put("/", settings.Update)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
