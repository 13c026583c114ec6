package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Rate limiting is applied globally: ratePerMin requests per minute per IP.
func NewRouter(handlers *Handlers, ratePerMin int, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(httprate.LimitByIP(ratePerMin, time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc())
		r.Get("/state", handlers.GetState)
		r.Put("/search", handlers.SetSearch)

		r.Get("/destinations", handlers.ListDestinations)
		r.Post("/destinations", handlers.CreateDestination)
		r.Post("/destinations/refresh", handlers.RefreshDestinations)
		r.Get("/destinations/{id}", handlers.GetDestination)
		r.Put("/destinations/{id}", handlers.UpdateDestination)
		r.Delete("/destinations/{id}", handlers.DeleteDestination)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
