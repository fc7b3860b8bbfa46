package services

import (
	"context"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
)

// Narrow collaborator interfaces the engine consumes. The SQLite repository
// satisfies all of the store interfaces; tests substitute fakes.

type TransactionStore interface {
	FindTransactions(ctx context.Context, ownerID, categoryID string, start, end core.Date) ([]core.Transaction, error)
}

type TransactionWriter interface {
	TransactionStore
	CreateTransaction(ctx context.Context, t core.Transaction) error
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id, ownerID string) error
	GetTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error)
}

type BudgetStore interface {
	GetBudget(ctx context.Context, id, ownerID string) (core.Budget, error)
	ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) error
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id, ownerID string) error
	FindActiveBudget(ctx context.Context, ownerID, categoryID string) (*core.Budget, error)
	FindAllActiveBudgets(ctx context.Context) ([]core.Budget, error)
}

type AlertStore interface {
	SaveAlert(ctx context.Context, a core.Alert) error
	ListAlerts(ctx context.Context, ownerID string) ([]core.Alert, error)
}

// CategoryResolver resolves category display names, returning sentinel
// strings ("All Categories", "Unknown") instead of failing.
type CategoryResolver interface {
	ResolveCategoryName(ctx context.Context, categoryID, ownerID string) string
}

type UserStore interface {
	ListActiveUsers(ctx context.Context) ([]core.User, error)
}

// NotificationPublisher hands a notification job to the queue. Publishing is
// best-effort from the engine's point of view: callers log failures and move
// on.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}
