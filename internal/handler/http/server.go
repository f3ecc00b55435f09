package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/auth"
	"github.com/sahsisunny/xproli-backend/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server wires every handler onto one mux and owns the HTTP listener
// lifecycle.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// Handlers groups everything the router needs.
type Handlers struct {
	Auth       *auth.AuthHandlers
	Middleware *auth.Middleware
	Links      *LinksHandler
	Clicks     *ClicksHandler
	Redirect   *RedirectHandler
	Health     *HealthHandler
}

// NewServer builds the HTTP server with routes and timeouts configured.
func NewServer(cfg *config.HTTPServer, handlers *Handlers, log *zap.Logger) *Server {
	mux := http.NewServeMux()
	setupRoutes(mux, handlers)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      requestID(requestLogger(log)(mux)),
			ReadTimeout:  parseDuration(log, "read_timeout", cfg.ReadTimeout, 30*time.Second),
			WriteTimeout: parseDuration(log, "write_timeout", cfg.WriteTimeout, 30*time.Second),
			IdleTimeout:  parseDuration(log, "idle_timeout", cfg.IdleTimeout, time.Minute),
		},
		log: log,
	}
}

func setupRoutes(mux *http.ServeMux, h *Handlers) {
	cors := h.Middleware.CORS
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return cors(h.Middleware.RequireAuth(next))
	}

	mux.HandleFunc("/api/auth/register", cors(h.Auth.Register))
	mux.HandleFunc("/api/auth/login", cors(h.Auth.Login))

	mux.HandleFunc("/api/links", authed(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.Links.CreateLink(w, r)
		case http.MethodGet:
			h.Links.ListLinks(w, r)
		default:
			writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/api/links/", authed(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Links.GetLinkAnalytics(w, r)
		case http.MethodPatch:
			h.Links.UpdateLink(w, r)
		case http.MethodDelete:
			h.Links.DeleteLink(w, r)
		default:
			writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.HandleFunc("/api/clicks", cors(h.Clicks.RecordClick))

	mux.HandleFunc("/health", h.Health.Health)
	mux.HandleFunc("/ready", h.Health.Ready)

	// Everything else is a short link candidate.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if isSystemPath(r.URL.Path) {
			writeError(w, "Not found", http.StatusNotFound)
			return
		}
		h.Redirect.HandleRedirect(w, r)
	})
}

func isSystemPath(path string) bool {
	return path == "/" ||
		strings.HasPrefix(path, "/api/") ||
		path == "/favicon.ico" ||
		path == "/robots.txt"
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", zap.String("address", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// requestID tags each request with a correlation id, honoring one supplied by
// the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func parseDuration(log *zap.Logger, name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn("failed to parse server duration, using default",
			zap.String("setting", name), zap.Error(err))
		return fallback
	}
	return d
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", r.Header.Get("X-Request-ID")),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
