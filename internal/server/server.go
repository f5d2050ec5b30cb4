package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/database"
)

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	DB      *database.DB
	Config  *config.Config
	DevMode bool
}

// Server is the thin HTTP shell over the analytics engines. It translates
// requests into engine calls and encodes the results; no business logic
// lives here.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	db       *database.DB
	cfg      *config.Config
	handlers *Handlers
}

// New creates a new HTTP server
func New(cfg Config, handlers *Handlers) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		db:       cfg.DB,
		cfg:      cfg.Config,
		handlers: handlers,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handlers.HandleSystemStatus)
		})

		r.Route("/portfolios/{portfolioID}", func(r chi.Router) {
			r.Route("/risk", func(r chi.Router) {
				r.Get("/var", s.handlers.HandleVaR)
				r.Get("/cvar", s.handlers.HandleCVaR)
				r.Post("/stress", s.handlers.HandleStressTest)
				r.Get("/metrics", s.handlers.HandleRiskMetrics)
				r.Get("/correlation", s.handlers.HandleCorrelation)
				r.Get("/sectors", s.handlers.HandleSectorExposures)
			})

			r.Get("/attribution", s.handlers.HandleAttribution)
			r.Get("/returns", s.handlers.HandleReturns)

			r.Post("/optimize", s.handlers.HandleOptimize)
			r.Get("/frontier", s.handlers.HandleFrontier)

			r.Post("/rebalance", s.handlers.HandleRebalance)

			r.Route("/compliance", func(r chi.Router) {
				r.Post("/check", s.handlers.HandleComplianceCheck)
				r.Post("/pretrade", s.handlers.HandlePreTradeCheck)
				r.Get("/violations", s.handlers.HandleOpenViolations)
				r.Post("/violations/{violationID}/resolve", s.handlers.HandleResolveViolation)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
