// Package http exposes the dashboard API: user-scoped CRUD over
// accounts, categories and transactions, CSV import, the summary
// aggregation endpoints and the bank aggregator flow.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"finboard/internal/auth"
	"finboard/internal/cache"
	"finboard/internal/charts"
	"finboard/internal/plaid"
	"finboard/internal/storage"
	"finboard/internal/summary"
)

// Worker-side writes (bank syncs) bypass this process, so cached
// summaries may lag them by at most this TTL. API writes invalidate
// the owner's entries immediately.
const summaryCacheTTL = time.Minute

// Queue is the slice of the message broker the API publishes to.
type Queue interface {
	PublishBankSync(ctx context.Context, userID string) error
	PublishSheetExport(ctx context.Context, userID, from, to string) error
}

type Server struct {
	http.Server

	repo     *storage.SQLiteRepository
	summary  *summary.Service
	verifier auth.Verifier
	bank     plaid.BankClient
	queue    Queue
	renderer *charts.Renderer

	summaryCache *cache.LRU[summary.Result]
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server. bank and queue may be nil; the endpoints
// that need them answer 503.
func NewServer(addr string, repo *storage.SQLiteRepository, verifier auth.Verifier, bank plaid.BankClient, queue Queue) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:         repo,
		summary:      summary.NewService(repo),
		verifier:     verifier,
		bank:         bank,
		queue:        queue,
		renderer:     charts.NewRenderer(),
		summaryCache: cache.NewLRU[summary.Result](256, summaryCacheTTL),
		rateLimiter:  newRateLimiter(),
	}
	s.summaryCache.StartCleanup(summaryCacheTTL)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/accounts", s.protected(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.protected(s.handleCreateAccount))
	mux.HandleFunc("POST /api/accounts/bulk-delete", s.protected(s.handleBulkDeleteAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.protected(s.handleGetAccount))
	mux.HandleFunc("PATCH /api/accounts/{id}", s.protected(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.protected(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/categories", s.protected(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.protected(s.handleCreateCategory))
	mux.HandleFunc("POST /api/categories/bulk-delete", s.protected(s.handleBulkDeleteCategories))
	mux.HandleFunc("GET /api/categories/{id}", s.protected(s.handleGetCategory))
	mux.HandleFunc("PATCH /api/categories/{id}", s.protected(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.protected(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("POST /api/transactions/bulk-create", s.protected(s.handleBulkCreateTransactions))
	mux.HandleFunc("POST /api/transactions/bulk-delete", s.protected(s.handleBulkDeleteTransactions))
	mux.HandleFunc("POST /api/transactions/import", s.protected(s.handleImportTransactions))
	mux.HandleFunc("POST /api/transactions/export", s.protected(s.handleExportTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.protected(s.handleGetTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/summary", s.protected(s.handleSummary))
	mux.HandleFunc("GET /api/summary/chart", s.protected(s.handleSummaryChart))

	mux.HandleFunc("POST /api/plaid/create-link-token", s.protected(s.handleCreateLinkToken))
	mux.HandleFunc("POST /api/plaid/exchange-public-token", s.protected(s.handleExchangePublicToken))
	mux.HandleFunc("GET /api/plaid/connected-bank", s.protected(s.handleGetConnectedBank))
	mux.HandleFunc("DELETE /api/plaid/connected-bank", s.protected(s.handleDeleteConnectedBank))

	return s
}

// Shutdown stops the HTTP server and the rate limiter's cleanup
// goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		s.summaryCache.StopCleanup()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

// protected wraps a handler with request logging, security headers,
// rate limiting on mutating methods and Bearer auth.
func (s *Server) protected(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		userID, err := s.authenticate(r)
		if err != nil {
			slog.WarnContext(ctx, "Authentication failed", "request_id", requestID, "error", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r, userID)

		// Any successful write may shift the user's aggregates.
		if r.Method != http.MethodGet && rw.statusCode < http.StatusBadRequest {
			s.invalidateSummaries(userID)
		}

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"user_id", userID)
	}
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", auth.ErrUnauthenticated
	}
	return s.verifier.Verify(r.Context(), token)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ListAccounts(r.Context(), "readiness-probe"); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
