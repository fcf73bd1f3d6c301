// Package relay is the HTTP surface for web clients that cannot reach the
// provider directly: an action-multiplexed catalog endpoint, a byte-streaming
// transport proxy, health, and metrics.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/showgate/showgate/internal/xtream"
)

// Server serves the relay endpoints. Credentials arrive per-request in the
// catalog endpoint body; the server itself holds no provider account.
type Server struct {
	Addr     string
	PageSize int // default item page size when the client sends none

	client       *xtream.Client
	streamClient *http.Client
	router       chi.Router
	started      time.Time
}

// New builds a relay server. client may be nil for defaults.
func New(addr string, pageSize int, client *xtream.Client) *Server {
	if client == nil {
		client = xtream.NewClient()
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	s := &Server{
		Addr:     addr,
		PageSize: pageSize,
		client:   client,
		// No overall timeout: proxied streams run for as long as the
		// viewer watches. The transport still times out dials/idles.
		streamClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	// Permissive cross-origin policy: the web client is served from a
	// different origin than the relay. OPTIONS short-circuits here.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Range"},
		ExposedHeaders: []string{"Content-Length", "Content-Range", "Accept-Ranges"},
		MaxAge:         300,
	}))

	r.Post("/api/xtream", s.handleXtream)
	r.Get("/proxy", s.handleProxy)
	r.Head("/proxy", s.handleProxy)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.started = time.Now()
	srv := &http.Server{Addr: s.Addr, Handler: s.router}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Relay listening on %s", s.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Print("Shutting down relay ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Relay shutdown: %v", err)
		}
		<-serverErr
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Write response: %v", err)
	}
}

// writeError emits the structured {error} body used by every failure path.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *loggingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := &loggingResponseWriter{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(lw, r)
		dur := time.Since(start)
		log.Printf("%s %s -> %d (%d bytes, %s)", r.Method, r.URL.Path, lw.status, lw.bytes, dur.Round(time.Millisecond))
		requestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(lw.status)).Inc()
		requestDuration.WithLabelValues(r.URL.Path).Observe(dur.Seconds())
	})
}
