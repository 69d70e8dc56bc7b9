// Package api provides the REST API and web UI for scicalc-service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ternarybob/scicalc/internal/config"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/session"
)

// Server represents the API server.
type Server struct {
	cfg      *config.Config
	router   chi.Router
	sessions *session.Manager
	keymap   *keymap.Keymap
	mcp      http.Handler
}

// NewServer creates a new API server. mcpHandler may be nil, in which case
// no /mcp endpoint is mounted.
func NewServer(cfg *config.Config, sessions *session.Manager, km *keymap.Keymap, mcpHandler http.Handler) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		keymap:   km,
		mcp:      mcpHandler,
	}

	s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Link", "Mcp-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Optional API key authentication
	if s.cfg.API.APIKey != "" {
		r.Use(s.apiKeyAuth)
	}

	// Health and version endpoints (no auth)
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	if s.cfg.API.Enabled {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/keymap", s.handleKeymap)
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Post("/", s.handleCreateSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSession)
					r.Delete("/", s.handleDeleteSession)
					r.Post("/input", s.handleInput)
					r.Post("/key", s.handleKey)
				})
			})
		})
	}

	// MCP streamable HTTP transport (long-lived, no timeout)
	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
	}

	// Web UI routes
	r.Get("/", s.handleWebRoot)
	r.Get("/web/*", s.handleWebAssets)

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// apiKeyAuth is middleware that validates API key.
func (s *Server) apiKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health, version and the static page
		if r.URL.Path == "/health" || r.URL.Path == "/version" || r.URL.Path == "/" || strings.HasPrefix(r.URL.Path, "/web/") {
			next.ServeHTTP(w, r)
			return
		}

		// Check API key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey != s.cfg.API.APIKey {
			writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
