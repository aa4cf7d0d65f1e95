// Package web provides the HTTP server and handlers for the catalog
// console: uploads, exports, and scraping job triggers.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pushkind/dantes/internal/catalog"
	"github.com/pushkind/dantes/internal/config"
	"github.com/pushkind/dantes/internal/dispatch"
	"github.com/pushkind/dantes/internal/repository"
	"github.com/pushkind/dantes/internal/web/middleware"
)

// parserRole gates every catalog operation; it marks hub members
// allowed to manage scraped data.
const parserRole = "parser"

// Server is the HTTP server for the catalog console.
type Server struct {
	engine    *catalog.Engine
	store     *repository.Store
	publisher *dispatch.Publisher
	cfg       *config.Config
	router    *chi.Mux
	server    *http.Server
}

// NewServer wires the engine, store and publisher into a routed server.
func NewServer(engine *catalog.Engine, store *repository.Store, publisher *dispatch.Publisher, cfg *config.Config) *Server {
	s := &Server{
		engine:    engine,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Upload.Timeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.SessionAuth(s.cfg.Auth.JWTSecret, s.cfg.Auth.CookieName))
		r.Use(middleware.RequireRole(parserRole))

		r.Route("/crawlers/{crawlerID}", func(r chi.Router) {
			r.Post("/products/upload", s.handleProductUpload)
			r.Get("/products/export", s.handleProductExport)
			r.Post("/crawl", s.handleCrawl)
			r.Post("/prices", s.handlePriceRefresh)
		})

		r.Post("/benchmarks/upload", s.handleBenchmarkUpload)
		r.Get("/benchmarks/export", s.handleBenchmarkExport)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
