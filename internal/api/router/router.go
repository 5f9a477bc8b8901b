// Package router assembles the HTTP surface: the public webhook and health
// endpoints plus the JWT-protected admin group.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dermaline/clinic-platform/internal/http/handlers"
	httpmiddleware "github.com/dermaline/clinic-platform/internal/http/middleware"
	"github.com/dermaline/clinic-platform/internal/webhook"
	"github.com/dermaline/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *webhook.Handler
	HealthHandler  *handlers.HealthHandler
	AdminHandler   *handlers.AdminHandler
	MetricsHandler http.Handler
	AdminJWTSecret string

	// Webhook rate limiting; zero disables it.
	WebhookRateLimit float64
	WebhookRateBurst int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints. The webhook group runs permissive CORS so the
	// gateway's OPTIONS preflight always succeeds.
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler.Check)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WebhookHandler != nil {
			public.Route("/webhooks", func(hooks chi.Router) {
				hooks.Use(httpmiddleware.CORS([]string{"*"}))
				if cfg.WebhookRateLimit > 0 {
					hooks.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst))
				}
				hooks.Post("/whatsapp", cfg.WebhookHandler.Inbound)
				hooks.Options("/whatsapp", func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNoContent)
				})
			})
		}
	})

	// Admin routes, HMAC JWT protected.
	if cfg.AdminHandler != nil && cfg.AdminJWTSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Get("/pending-requests", cfg.AdminHandler.ListPendingRequests)
			admin.Get("/messages", cfg.AdminHandler.ListMessages)
		})
	}

	return r
}
