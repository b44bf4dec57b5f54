package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"langpredict/internal/api/handlers"
	apimiddleware "langpredict/internal/api/middleware"
	"langpredict/internal/config"
	"langpredict/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	limiter  apimiddleware.Limiter
	metrics  http.Handler
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. limiter is required only when rate
// limiting is enabled; metrics may be nil.
func NewRouter(cfg config.Config, h *handlers.Handlers, limiter apimiddleware.Limiter, metrics http.Handler, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		limiter:  limiter,
		metrics:  metrics,
		logger:   log,
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger, "/health", "/ready", r.metricsPath()))
	router.Use(middleware.Recoverer)

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)

		if r.metrics != nil && r.config.Metrics.Enabled {
			pub.Handle(r.metricsPath(), r.metrics)
		}

		// Long-lived; kept out of the timeout and rate limit
		pub.Get("/ws/detections", r.handlers.Streaming.HandleWebSocket)
	})

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))
		if r.config.RateLimit.Enabled && r.limiter != nil {
			api.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger))
		}

		api.Post("/detect", r.handlers.Detection.Detect)
		api.Post("/detect/batch", r.handlers.Detection.DetectBatch)

		api.Get("/languages", r.handlers.Profiles.Languages)
		api.Route("/profiles", func(profiles chi.Router) {
			profiles.Get("/{lang}", r.handlers.Profiles.Get)
			profiles.With(apimiddleware.AdminAuth(r.config.Server.AdminToken)).
				Post("/reload", r.handlers.Profiles.Reload)
			profiles.Get("/reload/stats", r.handlers.Profiles.ReloadStats)
		})

		api.Get("/stream/stats", r.handlers.Streaming.GetStats)
	})

	return router
}

func (r *Router) metricsPath() string {
	if r.config.Metrics.Path == "" {
		return "/metrics"
	}
	return r.config.Metrics.Path
}
