package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConnectionManager is what the API needs from the database layer.
type ConnectionManager interface {
	EnsureConnections(ctx context.Context) error
	IsHealthy(name string) bool
}

type Server struct {
	dbs        ConnectionManager
	metrics    *metrics
	handler    http.Handler
	httpServer *http.Server
	apiKey     string
	now        func() time.Time
}

// NewServer wires the routes. Metrics are registered on reg and served from
// it; pass a fresh registry per server.
func NewServer(dbs ConnectionManager, port int, apiKey, corsOrigin string, reg *prometheus.Registry) *Server {
	s := &Server{
		dbs:     dbs,
		metrics: newMetrics(reg),
		apiKey:  apiKey,
		now:     time.Now,
	}

	mux := http.NewServeMux()

	// Health check (no auth required)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.Handle("GET /metrics", s.requireAPIKey(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Everything else
	mux.HandleFunc("/", s.handleNotFound)

	s.handler = corsMiddleware(mux, corsOrigin)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	fmt.Printf("[API] HTTP server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/api/health\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Metrics authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Metrics authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
