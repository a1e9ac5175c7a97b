// Package server wires the HTTP transport for the route optimizer:
// routes, middleware, and graceful start/shutdown. Structurally this
// mirrors the teacher's server.go (Config/New/Start/Shutdown,
// loggingMiddleware/corsMiddleware) with the desktop-app template and
// static-asset serving removed — this is a headless service.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"optimile/internal/anomalylog"
	"optimile/internal/config"
	"optimile/internal/handlers"
	"optimile/internal/traffic"
)

// Server wraps the HTTP server and all dependencies.
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	anomalyLog *anomalylog.Log
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it).
func New(cfg config.Config) (*Server, error) {
	log.Printf("Opening anomaly log at %s", cfg.AnomalyLogPath)
	alog, err := anomalylog.Open(cfg.AnomalyLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open anomaly log: %w", err)
	}

	trafficProvider := traffic.NewVendorClient(cfg.TrafficAPIKey)

	handler := &handlers.Handler{
		Config:          cfg,
		TrafficProvider: trafficProvider,
		AnomalyLog:      alog,
	}

	mux := setupRoutes(handler)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      loggingMiddleware(corsMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		anomalyLog: alog,
		addr:       cfg.Addr,
	}, nil
}

// Start starts the server and returns the actual address (useful for
// random port binding in tests).
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all HTTP routes.
func setupRoutes(handler *handlers.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", handler.HandleHealthCheck)

	mux.HandleFunc("/api/v1/optimize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleOptimize(w, r)
	})

	mux.HandleFunc("/api/v1/reoptimize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleReoptimize(w, r)
	})

	return mux
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, lrw.statusCode, duration)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
