package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fsmviz/application/services"
	"fsmviz/domain/core/layout"
	"fsmviz/infrastructure/config"
	"fsmviz/interfaces/http/rest/handlers"
	"fsmviz/interfaces/http/rest/middleware"
	"fsmviz/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	graphs   *services.GraphService
	sessions *services.SessionService
	engine   *layout.Engine
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	graphs *services.GraphService,
	sessions *services.SessionService,
	engine *layout.Engine,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		graphs:   graphs,
		sessions: sessions,
		engine:   engine,
		metrics:  metrics,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}
	if rt.cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(rt.cfg.RateLimitPerMinute, time.Minute/time.Duration(rt.cfg.RateLimitPerMinute))
		router.Use(limiter.Handler)
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/graphs", func(r chi.Router) {
			graphHandler := handlers.NewGraphHandler(rt.graphs, rt.sessions, rt.engine, rt.metrics, rt.logger)
			readOnly := middleware.ReadOnly(rt.cfg.ReadOnly)

			r.Get("/", graphHandler.List)
			r.With(readOnly).Post("/", graphHandler.Import)
			r.With(readOnly).Post("/retry-saves", graphHandler.RetrySaves)

			r.Route("/{graphID}", func(r chi.Router) {
				r.Get("/", graphHandler.Get)
				r.With(readOnly).Delete("/", graphHandler.Delete)
				r.Get("/layout", graphHandler.Layout)
				r.Get("/view", graphHandler.View)

				editHandler := handlers.NewEditHandler(rt.graphs, rt.logger)
				r.Group(func(r chi.Router) {
					r.Use(readOnly)
					r.Post("/states", editHandler.AddState)
					r.Delete("/states/{stateName}", editHandler.RemoveState)
					r.Post("/transitions", editHandler.AddTransition)
					r.Delete("/transitions/{transitionID}", editHandler.RemoveTransition)
					r.Put("/transitions/{transitionID}/condition", editHandler.SetCondition)
					r.Put("/reset-state", editHandler.SetResetState)
				})

				// Session routes stay open in read-only mode; selection
				// gestures still work, mutating gestures are rejected by
				// the session itself.
				sessionHandler := handlers.NewSessionHandler(rt.sessions, rt.logger)
				r.Get("/session", sessionHandler.Get)
				r.Post("/session/gestures", sessionHandler.Gesture)
				r.Delete("/session", sessionHandler.Reset)

				exportHandler := handlers.NewExportHandler(rt.graphs, rt.engine, rt.logger)
				r.Get("/export/dot", exportHandler.DOT)
				r.Get("/export/svg", exportHandler.SVG)
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
