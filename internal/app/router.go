package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fastcontrol/internal/api"
	"fastcontrol/internal/config"
	"fastcontrol/internal/middleware"
)

// NewRouter builds the chi router. GET /healthz is public; the /v1 routes
// require a bearer token when validator is not nil.
func NewRouter(cfg *config.Config, h *api.Handler, limiter *middleware.RateLimiter, validator middleware.JWTValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if limiter != nil {
		r.Use(limiter.Handler)
	}

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		if validator != nil {
			r.Use(middleware.Authenticate(validator))
		}
		h.RegisterRoutes(r)
	})
	return r
}
