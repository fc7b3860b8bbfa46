package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		ID:            "t1",
		OwnerID:       "u1",
		CategoryID:    "food",
		Amount:        decimal.RequireFromString("12.50"),
		Currency:      "USD",
		Description:   "lunch",
		Date:          core.NewDate(2024, 1, 15),
		PaymentMethod: core.Cash,
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(tx.Amount) || got.CategoryID != "food" || got.Date.String() != "2024-01-15" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	// Ownership scoping: another owner must not see it.
	if _, err := repo.GetTransaction(ctx, "t1", "u2"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong owner, got %v", err)
	}
}

func TestFindTransactionsRange(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	dates := []core.Date{
		core.NewDate(2023, 12, 31),
		core.NewDate(2024, 1, 1),
		core.NewDate(2024, 1, 31),
		core.NewDate(2024, 2, 1),
	}
	for i, d := range dates {
		tx := core.Transaction{
			ID:      string(rune('a' + i)),
			OwnerID: "u1",
			Amount:  decimal.NewFromInt(10),
			Date:    d,
		}
		if i%2 == 0 {
			tx.CategoryID = "food"
		}
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.FindTransactions(ctx, "u1", "", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("range should be inclusive, got %d transactions", len(got))
	}

	got, err = repo.FindTransactions(ctx, "u1", "food", core.NewDate(2023, 1, 1), core.NewDate(2024, 12, 31))
	if err != nil {
		t.Fatalf("find by category: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 food transactions, got %d", len(got))
	}
}

func TestActiveBudgetLookup(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	b := core.Budget{
		ID:             "b1",
		OwnerID:        "u1",
		CategoryID:     "food",
		Name:           "Groceries",
		Limit:          decimal.NewFromInt(100),
		Period:         core.Monthly,
		StartDate:      core.NewDate(2024, 1, 1),
		AlertThreshold: 80,
		Active:         true,
	}
	if err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	got, err := repo.FindActiveBudget(ctx, "u1", "food")
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got == nil || got.ID != "b1" {
		t.Fatalf("expected b1, got %+v", got)
	}

	// No budget for this scope is a nil result, not an error.
	got, err = repo.FindActiveBudget(ctx, "u1", "travel")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", got, err)
	}

	// Inactive budgets are invisible to the lookup.
	b.Active = false
	if err := repo.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("update budget: %v", err)
	}
	if got, _ := repo.FindActiveBudget(ctx, "u1", "food"); got != nil {
		t.Errorf("inactive budget must not be found")
	}
}

func TestDeleteBudgetCascadesAlerts(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	b := core.Budget{
		ID: "b1", OwnerID: "u1", Name: "B", Limit: decimal.NewFromInt(50),
		Period: core.Monthly, StartDate: core.NewDate(2024, 1, 1),
		AlertThreshold: 80, Active: true,
	}
	if err := repo.CreateBudget(ctx, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	a := core.Alert{
		ID: "a1", BudgetID: "b1", OwnerID: "u1",
		Kind: core.ThresholdReached, Message: "m", TriggeredAt: time.Now().UTC(),
	}
	if err := repo.SaveAlert(ctx, a); err != nil {
		t.Fatalf("save alert: %v", err)
	}

	if err := repo.DeleteBudget(ctx, "b1", "u1"); err != nil {
		t.Fatalf("delete budget: %v", err)
	}
	alerts, err := repo.ListAlerts(ctx, "u1")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts must cascade with budget deletion, %d left", len(alerts))
	}
}

func TestMarkAlertNotified(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := core.Alert{
		ID: "a1", BudgetID: "b1", OwnerID: "u1",
		Kind: core.BudgetExceeded, Message: "m", TriggeredAt: time.Now().UTC(),
	}
	if err := repo.SaveAlert(ctx, a); err != nil {
		t.Fatalf("save alert: %v", err)
	}
	if err := repo.MarkAlertNotified(ctx, "a1"); err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	alerts, _ := repo.ListAlerts(ctx, "u1")
	if len(alerts) != 1 || !alerts[0].Notified {
		t.Errorf("alert should be notified: %+v", alerts)
	}
	if err := repo.MarkAlertNotified(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveCategoryName(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.CreateCategory(ctx, "c1", "u1", "Food"); err != nil {
		t.Fatalf("create category: %v", err)
	}

	if got := repo.ResolveCategoryName(ctx, "c1", "u1"); got != "Food" {
		t.Errorf("got %q, want Food", got)
	}
	if got := repo.ResolveCategoryName(ctx, "", "u1"); got != "All Categories" {
		t.Errorf("empty id: got %q", got)
	}
	if got := repo.ResolveCategoryName(ctx, "missing", "u1"); got != "Unknown" {
		t.Errorf("missing: got %q", got)
	}
	// Never leaks another owner's category names.
	if got := repo.ResolveCategoryName(ctx, "c1", "u2"); got != "Unknown" {
		t.Errorf("cross-owner: got %q", got)
	}
}

func TestListActiveUsers(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	users := []core.User{
		{ID: "u1", Email: "a@example.com", FirstName: "A", Active: true},
		{ID: "u2", Email: "b@example.com", FirstName: "B", Active: false},
	}
	for _, u := range users {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	got, err := repo.ListActiveUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "u1" {
		t.Errorf("expected only u1, got %+v", got)
	}
}
