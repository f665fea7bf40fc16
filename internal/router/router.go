package router

import (
	"net/http"
	"time"

	"Mansoor88-6/interaction-insights/internal/auth"
	"Mansoor88-6/interaction-insights/internal/handler"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures the HTTP surface
type Options struct {
	CORSAllowedOrigins []string
	// TrackRateLimit is the number of /api/track requests allowed per IP
	// per RateLimitWindow. Zero disables the limit.
	TrackRateLimit  int
	RateLimitWindow time.Duration
}

// Handlers are the request handlers mounted by New
type Handlers struct {
	Track        *handler.TrackHandler
	Insights     *handler.InsightHandler
	Integrations *handler.IntegrationHandler
	Health       *handler.HealthHandler
}

func New(h Handlers, verifier *auth.Verifier, opts Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         3600,
	}))

	r.Get("/health", h.Health.Health)
	r.Get("/health/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(metricsMiddleware)

		// Ingestion is gated by the integration allowlist, not by tokens
		r.Group(func(r chi.Router) {
			if opts.TrackRateLimit > 0 {
				r.Use(httprate.LimitByIP(opts.TrackRateLimit, opts.RateLimitWindow))
			}
			r.Post("/track", h.Track.Track)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier, logger))

			r.Get("/export", h.Track.Export)
			r.Post("/generate-insights", h.Insights.GenerateInsights)
			r.Post("/generate-summary", h.Insights.GenerateSummary)
			r.Get("/insights/latest", h.Insights.Latest)

			r.Post("/integrations", h.Integrations.Create)
			r.Get("/integrations", h.Integrations.List)
			r.Patch("/integrations/{id}/status", h.Integrations.UpdateStatus)
			r.Delete("/integrations/{id}", h.Integrations.Delete)
		})
	})

	return r
}
