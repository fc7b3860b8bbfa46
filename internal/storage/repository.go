// Package storage implements the persistence collaborators on SQLite:
// record, budget, alert, category and user stores.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"spendwise/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, owner_id, category_id, amount, currency, description, tx_date,
			 payment_method, is_recurring, recurrence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		t.ID, t.OwnerID, nullable(t.CategoryID), t.Amount.String(), t.Currency,
		t.Description, t.Date.String(), string(t.PaymentMethod),
		boolToInt(t.Recurring), nullable(string(t.Recurrence)))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, category_id, amount, currency, description, tx_date,
		       payment_method, is_recurring, recurrence, created_at
		FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, amount = ?, currency = ?, description = ?,
		    tx_date = ?, payment_method = ?, is_recurring = ?, recurrence = ?
		WHERE id = ? AND owner_id = ?`,
		nullable(t.CategoryID), t.Amount.String(), t.Currency, t.Description,
		t.Date.String(), string(t.PaymentMethod), boolToInt(t.Recurring),
		nullable(string(t.Recurrence)), t.ID, t.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return checkAffected(res, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return checkAffected(res, id)
}

// FindTransactions returns the owner's transactions dated within [start, end]
// inclusive. An empty categoryID matches all categories.
func (r *SQLiteRepository) FindTransactions(ctx context.Context, ownerID, categoryID string, start, end core.Date) ([]core.Transaction, error) {
	query := `
		SELECT id, owner_id, category_id, amount, currency, description, tx_date,
		       payment_method, is_recurring, recurrence, created_at
		FROM transactions
		WHERE owner_id = ? AND tx_date >= ? AND tx_date <= ?`
	args := []any{ownerID, start.String(), end.String()}
	if categoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY tx_date, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets
			(id, owner_id, category_id, name, limit_amount, period_type,
			 start_date, end_date, alert_threshold, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		b.ID, b.OwnerID, nullable(b.CategoryID), b.Name, b.Limit.String(),
		string(b.Period), b.StartDate.String(), nullableDate(b.EndDate),
		b.AlertThreshold, boolToInt(b.Active))
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id, ownerID string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, budgetSelect+` WHERE id = ? AND owner_id = ?`, id, ownerID)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, budgetSelect+` WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, name = ?, limit_amount = ?, period_type = ?,
		    start_date = ?, end_date = ?, alert_threshold = ?, is_active = ?
		WHERE id = ? AND owner_id = ?`,
		nullable(b.CategoryID), b.Name, b.Limit.String(), string(b.Period),
		b.StartDate.String(), nullableDate(b.EndDate), b.AlertThreshold,
		boolToInt(b.Active), b.ID, b.OwnerID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return checkAffected(res, b.ID)
}

// DeleteBudget removes the budget and cascades to its alerts.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete budget: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := checkAffected(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts WHERE budget_id = ?`, id); err != nil {
		return fmt.Errorf("delete budget alerts: %w", err)
	}
	return tx.Commit()
}

// FindActiveBudget returns the single active budget scoped to (owner,
// category), or nil when none exists. Budgets are optional, so absence is
// not an error.
func (r *SQLiteRepository) FindActiveBudget(ctx context.Context, ownerID, categoryID string) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		budgetSelect+` WHERE owner_id = ? AND category_id = ? AND is_active = 1 LIMIT 1`,
		ownerID, categoryID)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active budget: %w", err)
	}
	return &b, nil
}

func (r *SQLiteRepository) FindAllActiveBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, budgetSelect+` WHERE is_active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("find active budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

// --- alerts ---

func (r *SQLiteRepository) SaveAlert(ctx context.Context, a core.Alert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, budget_id, owner_id, kind, message, is_notified, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BudgetID, a.OwnerID, string(a.Kind), a.Message,
		boolToInt(a.Notified), a.TriggeredAt)
	if err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkAlertNotified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET is_notified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark alert notified: %w", err)
	}
	return checkAffected(res, id)
}

func (r *SQLiteRepository) ListAlerts(ctx context.Context, ownerID string) ([]core.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, budget_id, owner_id, kind, message, is_notified, triggered_at
		FROM alerts WHERE owner_id = ? ORDER BY triggered_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []core.Alert
	for rows.Next() {
		var a core.Alert
		var kind string
		var notified int
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.OwnerID, &kind, &a.Message, &notified, &a.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Kind = core.AlertKind(kind)
		a.Notified = notified != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, id, ownerID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, owner_id, name) VALUES (?, ?, ?)`, id, ownerID, name)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// ResolveCategoryName looks up the display name for a category. It returns a
// sentinel rather than an error: "All Categories" for an empty id, "Unknown"
// when the category does not exist for this owner.
func (r *SQLiteRepository) ResolveCategoryName(ctx context.Context, categoryID, ownerID string) string {
	if categoryID == "" {
		return "All Categories"
	}
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE id = ? AND owner_id = ?`, categoryID, ownerID).Scan(&name)
	if err != nil {
		return "Unknown"
	}
	return name
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, is_active) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, boolToInt(u.Active))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, is_active FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.FirstName, &active)
	if err == sql.ErrNoRows {
		return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Active = active != 0
	return u, nil
}

func (r *SQLiteRepository) ListActiveUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, first_name, is_active FROM users WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		var active int
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &active); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Active = active != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- scan helpers ---

const budgetSelect = `
	SELECT id, owner_id, category_id, name, limit_amount, period_type,
	       start_date, end_date, alert_threshold, is_active, created_at
	FROM budgets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var categoryID, recurrence sql.NullString
	var amount, txDate, method string
	var recurring int
	var createdAt time.Time

	err := row.Scan(&t.ID, &t.OwnerID, &categoryID, &amount, &t.Currency,
		&t.Description, &txDate, &method, &recurring, &recurrence, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}

	t.CategoryID = categoryID.String
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Date, err = core.ParseDate(txDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", txDate, err)
	}
	t.PaymentMethod = core.PaymentMethod(method)
	t.Recurring = recurring != 0
	t.Recurrence = core.RecurrencePattern(recurrence.String)
	t.CreatedAt = createdAt
	return t, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var categoryID, endDate sql.NullString
	var limit, period, startDate string
	var active int
	var createdAt time.Time

	err := row.Scan(&b.ID, &b.OwnerID, &categoryID, &b.Name, &limit, &period,
		&startDate, &endDate, &b.AlertThreshold, &active, &createdAt)
	if err != nil {
		return core.Budget{}, err
	}

	b.CategoryID = categoryID.String
	b.Limit, err = decimal.NewFromString(limit)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse limit %q: %w", limit, err)
	}
	b.Period = core.PeriodType(period)
	b.StartDate, err = core.ParseDate(startDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	if endDate.Valid && endDate.String != "" {
		b.EndDate, err = core.ParseDate(endDate.String)
		if err != nil {
			return core.Budget{}, fmt.Errorf("parse end date %q: %w", endDate.String, err)
		}
	}
	b.Active = active != 0
	b.CreatedAt = createdAt
	return b, nil
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	return nil
}
