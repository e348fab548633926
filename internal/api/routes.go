package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Organization-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no org context required)
	r.Get("/health", h.HealthCheck)

	// API routes require an organization context
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireOrgContext)

		r.Post("/campaigns/{id}/send", h.SendCampaign)
		r.Post("/templates/preview", h.PreviewTemplate)
		r.Get("/mail/quota", h.GetQuota)
	})

	return r
}
