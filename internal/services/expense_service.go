package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

// budgetChecker is the write-path hook into the budget engine.
type budgetChecker interface {
	OnTransactionWritten(ownerID, categoryID string)
}

// ExpenseService is the transaction write path. Every create with a category
// kicks off an asynchronous budget check.
type ExpenseService struct {
	store   TransactionWriter
	checker budgetChecker
	logger  *log.Logger
}

func NewExpenseService(store TransactionWriter, checker budgetChecker, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:   store,
		checker: checker,
		logger:  logger.WithComponent(log.ComponentStorage),
	}
}

// ExpenseInput carries the writable fields of a transaction. Nil pointers
// mean "leave unchanged" on update and "apply default" on create.
type ExpenseInput struct {
	CategoryID    string
	Amount        *decimal.Decimal
	Currency      string
	Description   string
	Date          *core.Date
	PaymentMethod core.PaymentMethod
	Recurring     *bool
	Recurrence    core.RecurrencePattern
}

// Create records a new expense. Currency defaults to USD and payment method
// to CASH, matching the API contract. When the expense carries a category the
// budget check runs in the background after the insert commits.
func (s *ExpenseService) Create(ctx context.Context, ownerID string, in ExpenseInput) (core.Transaction, error) {
	t := core.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		CategoryID:  in.CategoryID,
		Currency:    in.Currency,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if in.Amount != nil {
		t.Amount = *in.Amount
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}
	if in.Date != nil {
		t.Date = *in.Date
	}
	t.PaymentMethod = in.PaymentMethod
	if t.PaymentMethod == "" {
		t.PaymentMethod = core.Cash
	}
	if in.Recurring != nil {
		t.Recurring = *in.Recurring
	}
	t.Recurrence = in.Recurrence

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Expense created",
		log.FieldOwnerID, ownerID,
		log.FieldCategoryID, t.CategoryID)

	if t.CategoryID != "" && s.checker != nil {
		s.checker.OnTransactionWritten(ownerID, t.CategoryID)
	}
	return t, nil
}

// Update applies the provided fields to an owned expense. The budget check
// does not rerun on update.
func (s *ExpenseService) Update(ctx context.Context, id, ownerID string, in ExpenseInput) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id, ownerID)
	if err != nil {
		return core.Transaction{}, err
	}

	if in.Amount != nil {
		t.Amount = *in.Amount
	}
	if in.Currency != "" {
		t.Currency = in.Currency
	}
	if in.Description != "" {
		t.Description = in.Description
	}
	if in.Date != nil {
		t.Date = *in.Date
	}
	if in.CategoryID != "" {
		t.CategoryID = in.CategoryID
	}
	if in.PaymentMethod != "" {
		t.PaymentMethod = in.PaymentMethod
	}
	if in.Recurring != nil {
		t.Recurring = *in.Recurring
	}
	if in.Recurrence != "" {
		t.Recurrence = in.Recurrence
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	s.logger.InfoContext(ctx, "Expense updated", log.FieldOwnerID, ownerID)
	return t, nil
}

func (s *ExpenseService) Get(ctx context.Context, id, ownerID string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id, ownerID)
}

func (s *ExpenseService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.store.DeleteTransaction(ctx, id, ownerID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldOwnerID, ownerID)
	return nil
}

// ListRange returns the owner's expenses with dates in [start, end].
func (s *ExpenseService) ListRange(ctx context.Context, ownerID string, start, end core.Date) ([]core.Transaction, error) {
	return s.store.FindTransactions(ctx, ownerID, "", start, end)
}
