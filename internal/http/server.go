// Package http exposes the JSON API: expenses, budgets, analytics and
// exchange rates.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/rates"
	"spendwise/internal/services"
)

type Server struct {
	http.Server

	expenses  *services.ExpenseService
	budgets   *services.BudgetService
	analytics *services.AnalyticsService
	rates     *rates.Client
	limiter   *ratelimit.Limiter
	jwtSecret []byte
	logger    *log.Logger

	shutdownOnce sync.Once
}

// Deps carries the collaborators the server routes to.
type Deps struct {
	Expenses  *services.ExpenseService
	Budgets   *services.BudgetService
	Analytics *services.AnalyticsService
	Rates     *rates.Client
	Limiter   *ratelimit.Limiter
	JWTSecret string
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		expenses:  deps.Expenses,
		budgets:   deps.Budgets,
		analytics: deps.Analytics,
		rates:     deps.Rates,
		limiter:   deps.Limiter,
		jwtSecret: []byte(deps.JWTSecret),
		logger:    logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/expenses", s.api(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", s.api(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/{id}", s.api(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.api(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.api(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/budgets", s.api(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.api(s.handleCreateBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.api(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.api(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/{id}/status", s.api(s.handleBudgetStatus))
	mux.HandleFunc("GET /api/alerts", s.api(s.handleListAlerts))

	mux.HandleFunc("GET /api/analytics/summary", s.api(s.handleSummary))
	mux.HandleFunc("GET /api/analytics/categories", s.api(s.handleCategoryWise))
	mux.HandleFunc("GET /api/analytics/trends", s.api(s.handleMonthlyTrends))

	mux.HandleFunc("GET /api/rates", s.api(s.handleRates))

	return s
}

// api is the middleware chain for authenticated routes: request logging,
// bearer auth, then per-owner rate limiting.
func (s *Server) api(next http.HandlerFunc) http.HandlerFunc {
	return s.withRequestLog(s.withAuth(s.withRateLimit(next)))
}

func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)
		s.logger.Info("Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.status,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// withRateLimit keys buckets by the authenticated owner, falling back to
// the client address for anything that slipped past auth.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		key := ownerFrom(r)
		if key == "" {
			key = clientAddr(r)
		}
		if !s.limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded", log.FieldClientKey, key)
			w.Header().Set("Retry-After", "60")
			writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func clientAddr(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

// Shutdown stops the HTTP server and the limiter's background goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
