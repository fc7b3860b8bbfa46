package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"spendwise/internal/cache"
	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/storage"
)

const testSecret = "test-secret"

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := testLogger()
	budgets := services.NewBudgetService(repo, repo, repo, repo, nil, logger)
	budgets.Now = func() core.Date { return core.NewDate(2025, 6, 15) }
	expenses := services.NewExpenseService(repo, budgets, logger)
	analytics := services.NewAnalyticsService(repo, repo, cache.NewLRU[core.Summary](16, time.Minute), logger)

	srv := NewServer(":0", Deps{
		Expenses:  expenses,
		Budgets:   budgets,
		Analytics: analytics,
		JWTSecret: testSecret,
	}, logger)
	return srv, repo
}

func bearerToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func doRequest(t *testing.T, srv *Server, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if owner != "" {
		req.Header.Set("Authorization", bearerToken(t, owner))
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got message %q", env.Message)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/budgets", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/budgets", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}

func TestCreateAndGetExpense(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/expenses", "user-1", map[string]any{
		"amount":        "12.50",
		"description":   "lunch",
		"date":          "2025-06-10",
		"paymentMethod": "CASH",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created expenseResponse
	decodeData(t, rec, &created)
	if !created.Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("unexpected amount: %s", created.Amount)
	}
	if created.Currency != "USD" {
		t.Errorf("expected default currency USD, got %q", created.Currency)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/expenses/"+created.ID, "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Another owner cannot see it.
	rec = doRequest(t, srv, http.MethodGet, "/api/expenses/"+created.ID, "user-2", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other owner, got %d", rec.Code)
	}
}

func TestCreateExpenseInvalid(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/expenses", "user-1", map[string]any{
		"amount": "-5",
		"date":   "2025-06-10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/expenses", "user-1", map[string]any{
		"amount": "5",
		"date":   "not-a-date",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestBudgetLifecycleAndStatus(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()

	if err := repo.CreateCategory(ctx, "cat-food", "user-1", "Food"); err != nil {
		t.Fatalf("create category: %v", err)
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/budgets", "user-1", map[string]any{
		"categoryId": "cat-food",
		"name":       "Food",
		"limit":      "100",
		"period":     "MONTHLY",
		"startDate":  "2025-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var budget budgetResponse
	decodeData(t, rec, &budget)
	if budget.AlertThreshold != 80 {
		t.Errorf("expected default threshold 80, got %d", budget.AlertThreshold)
	}

	// Spend inside the current period.
	for _, amount := range []string{"50.00", "35.00"} {
		rec = doRequest(t, srv, http.MethodPost, "/api/expenses", "user-1", map[string]any{
			"categoryId": "cat-food",
			"amount":     amount,
			"date":       "2025-06-10",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/budgets/"+budget.ID+"/status", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var status budgetStatusResponse
	decodeData(t, rec, &status)
	if !status.Spent.Equal(decimal.RequireFromString("85")) {
		t.Errorf("expected spent 85, got %s", status.Spent)
	}
	if status.PercentageUsed != 85.0 {
		t.Errorf("expected 85%%, got %v", status.PercentageUsed)
	}
	if status.Status != core.StatusWarning {
		t.Errorf("expected WARNING, got %s", status.Status)
	}
	if status.CategoryName != "Food" {
		t.Errorf("expected category name Food, got %q", status.CategoryName)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/budgets/"+budget.ID, "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/budgets/"+budget.ID+"/status", "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestBudgetStatusNotOwned(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/budgets", "user-1", map[string]any{
		"name":      "Overall",
		"limit":     "500",
		"period":    "MONTHLY",
		"startDate": "2025-01-01",
	})
	var budget budgetResponse
	decodeData(t, rec, &budget)

	rec = doRequest(t, srv, http.MethodGet, "/api/budgets/"+budget.ID+"/status", "user-2", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other owner, got %d", rec.Code)
	}
}

func TestAnalyticsSummary(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, e := range []map[string]any{
		{"amount": "60.00", "date": "2025-06-05", "paymentMethod": "CASH"},
		{"amount": "40.00", "date": "2025-06-06", "paymentMethod": "CREDIT_CARD"},
	} {
		rec := doRequest(t, srv, http.MethodPost, "/api/expenses", "user-1", e)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/summary?startDate=2025-06-01&endDate=2025-06-30", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary summaryResponse
	decodeData(t, rec, &summary)
	if summary.TotalTransactions != 2 {
		t.Errorf("expected 2 transactions, got %d", summary.TotalTransactions)
	}
	if !summary.TotalExpenses.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected total 100, got %s", summary.TotalExpenses)
	}
	if len(summary.CategoryBreakdown) != 1 || summary.CategoryBreakdown[0].CategoryName != "Uncategorized" {
		t.Errorf("expected single Uncategorized bucket, got %+v", summary.CategoryBreakdown)
	}

	// Missing parameters are a client error.
	rec = doRequest(t, srv, http.MethodGet, "/api/analytics/summary", "user-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without dates, got %d", rec.Code)
	}
}

func TestListAlerts(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()

	if err := repo.SaveAlert(ctx, core.Alert{
		ID:          "a1",
		BudgetID:    "b1",
		OwnerID:     "user-1",
		Kind:        core.ThresholdReached,
		Message:     "Budget alert! You have spent 85.00% of your budget.",
		TriggeredAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save alert: %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/alerts", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var alerts []alertResponse
	decodeData(t, rec, &alerts)
	if len(alerts) != 1 || alerts[0].Kind != string(core.ThresholdReached) {
		t.Errorf("unexpected alerts: %+v", alerts)
	}

	// Alerts are owner scoped.
	rec = doRequest(t, srv, http.MethodGet, "/api/alerts", "user-2", nil)
	var other []alertResponse
	decodeData(t, rec, &other)
	if len(other) != 0 {
		t.Errorf("expected no alerts for other owner, got %+v", other)
	}
}

func TestAnalyticsSummaryEmptyRange(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/analytics/summary?startDate=2025-01-01&endDate=2025-01-31", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty range must not fail, got %d", rec.Code)
	}
	var summary summaryResponse
	decodeData(t, rec, &summary)
	if summary.TotalTransactions != 0 || !summary.TotalExpenses.IsZero() {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}
