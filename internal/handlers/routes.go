package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger) // Custom conditional HTTP logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// WebSocket
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Auth routes (public)
	r.Post("/api/login", h.handleLogin)
	r.Post("/api/logout", h.handleLogout)
	r.Get("/api/session", h.handleSession)

	// Scoreboard API (public)
	r.Get("/api/matches", h.handleListMatches)
	r.Get("/api/matches/{id}", h.handleGetMatch)
	r.Get("/api/matches/{id}/scoreboard", h.handleScoreboardURL)
	r.Get("/api/matches/{id}/qr", h.handleScoreboardQR)
	r.Get("/api/settings", h.handleGetSettings)

	// Draft tools never persist anything
	r.Post("/api/matches/{id}/preview", h.handlePreview)
	r.Post("/api/matches/{id}/balance", h.handleBalance)

	// Scorekeeper API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Matches
		r.Post("/api/matches", h.handleCreateMatch)

		// Hands
		r.Post("/api/matches/{id}/hands", h.handleSubmitHand)
		r.Put("/api/matches/{id}/hands/{handID}", h.handleEditHand)
		r.Delete("/api/matches/{id}/hands/last", h.handleUndoLastHand)
		r.Post("/api/matches/{id}/blank-hand", h.handleBlankHand)
		r.Post("/api/matches/{id}/penalties", h.handleAddPenalty)

		// Settings
		r.Put("/api/settings", h.handleUpdateSettings)
	})

	return r
}
