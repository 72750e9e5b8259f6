// Package http serves the JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/services"
)

type Server struct {
	http.Server
	svc          *services.LedgerService
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *services.LedgerService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:         svc,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/groups", s.withSecurityHeaders(s.handleTransactionGroups))
	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/goals", s.withSecurityHeaders(s.handleListGoals))
	mux.HandleFunc("GET /api/goals/stats", s.withSecurityHeaders(s.handleGoalStats))
	mux.HandleFunc("GET /api/goals/{id}", s.withSecurityHeaders(s.handleGetGoal))
	mux.HandleFunc("POST /api/goals", s.withSecurityHeaders(s.handleCreateGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.withSecurityHeaders(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.withSecurityHeaders(s.handleDeleteGoal))
	mux.HandleFunc("PATCH /api/goals/{id}/deposit", s.withSecurityHeaders(s.handleDeposit))

	mux.HandleFunc("GET /api/assets", s.withSecurityHeaders(s.handleListAssets))
	mux.HandleFunc("POST /api/assets", s.withSecurityHeaders(s.handleCreateAsset))
	mux.HandleFunc("DELETE /api/assets/{id}", s.withSecurityHeaders(s.handleDeleteAsset))

	mux.HandleFunc("GET /api/portfolio/consolidated", s.withSecurityHeaders(s.handleConsolidated))
	mux.HandleFunc("GET /api/portfolio/positions", s.withSecurityHeaders(s.handlePositions))

	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/summary/budget", s.withSecurityHeaders(s.handleBudget))
	mux.HandleFunc("GET /api/balance/projection", s.withSecurityHeaders(s.handleProjection))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		// Generate request ID for tracing
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutating requests
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Capture the status code for the completion log
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
