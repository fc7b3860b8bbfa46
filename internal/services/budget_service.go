// Package services orchestrates the budget evaluation and alerting engine
// over the stores, the notification queue and the aggregation core.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

// BudgetService evaluates budgets against recorded spend and raises alerts
// on threshold crossings.
type BudgetService struct {
	budgets    BudgetStore
	alerts     AlertStore
	txs        TransactionStore
	categories CategoryResolver
	publisher  NotificationPublisher
	logger     *log.Logger

	// Now is the clock used for period windows; tests override it.
	Now func() core.Date
}

func NewBudgetService(budgets BudgetStore, alerts AlertStore, txs TransactionStore, categories CategoryResolver, publisher NotificationPublisher, logger *log.Logger) *BudgetService {
	return &BudgetService{
		budgets:    budgets,
		alerts:     alerts,
		txs:        txs,
		categories: categories,
		publisher:  publisher,
		logger:     logger.WithComponent(log.ComponentBudget),
		Now:        core.Today,
	}
}

// Status evaluates one budget for its current period. The spend window runs
// from the period start to today; budgets scoped to no category aggregate
// across all of the owner's categories.
func (s *BudgetService) Status(ctx context.Context, budgetID, ownerID string) (core.BudgetStatus, error) {
	budget, err := s.budgets.GetBudget(ctx, budgetID, ownerID)
	if err != nil {
		return core.BudgetStatus{}, err
	}

	now := s.Now()
	spent, err := s.spentInPeriod(ctx, budget, now)
	if err != nil {
		return core.BudgetStatus{}, err
	}

	pct := core.Percentage(spent, budget.Limit)
	return core.BudgetStatus{
		BudgetID:       budget.ID,
		BudgetName:     budget.Name,
		CategoryID:     budget.CategoryID,
		CategoryName:   s.categories.ResolveCategoryName(ctx, budget.CategoryID, ownerID),
		Limit:          budget.Limit,
		Spent:          spent,
		Remaining:      budget.Limit.Sub(spent),
		PercentageUsed: pct,
		Status:         core.ClassifyStatus(pct),
	}, nil
}

// CheckAndAlert looks up the active budget for (owner, category) and raises
// an alert when spend has crossed 100% or the budget's own alert threshold.
// No active budget is a no-op, not an error. Every qualifying evaluation
// inserts a new alert row; there is no suppression of equivalent existing
// alerts.
func (s *BudgetService) CheckAndAlert(ctx context.Context, ownerID, categoryID string) error {
	budget, err := s.budgets.FindActiveBudget(ctx, ownerID, categoryID)
	if err != nil {
		return fmt.Errorf("find active budget: %w", err)
	}
	if budget == nil {
		return nil
	}

	spent, err := s.spentInPeriod(ctx, *budget, s.Now())
	if err != nil {
		return err
	}
	pct := core.Percentage(spent, budget.Limit)

	switch {
	case pct >= 100:
		return s.raiseAlert(ctx, *budget, core.BudgetExceeded,
			fmt.Sprintf("Budget exceeded! You have spent %.2f%% of your budget.", pct))
	case pct >= float64(budget.AlertThreshold):
		return s.raiseAlert(ctx, *budget, core.ThresholdReached,
			fmt.Sprintf("Budget alert! You have spent %.2f%% of your budget.", pct))
	}
	return nil
}

// OnTransactionWritten is the fire-and-forget hook invoked by the expense
// write path. The triggering request never waits for, or fails on, the
// check.
func (s *BudgetService) OnTransactionWritten(ownerID, categoryID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.CheckAndAlert(ctx, ownerID, categoryID); err != nil {
			s.logger.Error("Budget check after transaction write failed",
				log.FieldError, err,
				log.FieldOwnerID, ownerID,
				log.FieldCategoryID, categoryID)
		}
	}()
}

func (s *BudgetService) spentInPeriod(ctx context.Context, b core.Budget, now core.Date) (spent decimal.Decimal, err error) {
	start := core.PeriodStart(b.Period, now)
	txs, err := s.txs.FindTransactions(ctx, b.OwnerID, b.CategoryID, start, now)
	if err != nil {
		return spent, fmt.Errorf("find transactions: %w", err)
	}
	return core.SumAmounts(txs), nil
}

// raiseAlert persists the alert row and then enqueues the notification job.
// The insert must succeed; a publish failure is logged and swallowed so the
// triggering operation is never rolled back by a broker outage.
func (s *BudgetService) raiseAlert(ctx context.Context, b core.Budget, kind core.AlertKind, message string) error {
	alert := core.Alert{
		ID:          uuid.NewString(),
		BudgetID:    b.ID,
		OwnerID:     b.OwnerID,
		Kind:        kind,
		Message:     message,
		TriggeredAt: time.Now().UTC(),
	}
	if err := s.alerts.SaveAlert(ctx, alert); err != nil {
		return fmt.Errorf("save alert: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget alert created",
		log.FieldKind, string(kind),
		log.FieldBudgetID, b.ID,
		log.FieldOwnerID, b.OwnerID)

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "Notification publisher not available, skipping dispatch",
			log.FieldAlertID, alert.ID)
		return nil
	}

	msg := amqp.NewNotificationMessage(b.OwnerID,
		"Budget Alert: "+b.Name,
		message+"\n\nBudget: "+b.Name+"\n\nPlease review your spending and consider adjusting your budget if needed.")
	msg.AlertID = alert.ID
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish budget alert notification",
			log.FieldError, err,
			log.FieldAlertID, alert.ID)
	}
	return nil
}

// --- budget CRUD ---

// BudgetInput carries the writable fields of a budget. Pointer fields
// distinguish "absent" from zero values on update.
type BudgetInput struct {
	CategoryID     string
	Name           string
	Limit          decimal.Decimal
	Period         core.PeriodType
	StartDate      core.Date
	EndDate        core.Date
	AlertThreshold *int
	Active         *bool
}

func (s *BudgetService) Create(ctx context.Context, ownerID string, in BudgetInput) (core.Budget, error) {
	threshold := core.DefaultAlertThreshold
	if in.AlertThreshold != nil {
		threshold = *in.AlertThreshold
	}
	b := core.Budget{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		CategoryID:     in.CategoryID,
		Name:           in.Name,
		Limit:          in.Limit,
		Period:         in.Period,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		AlertThreshold: threshold,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.budgets.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "Budget created",
		log.FieldBudgetID, b.ID, log.FieldOwnerID, ownerID)
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, budgetID, ownerID string, in BudgetInput) (core.Budget, error) {
	b, err := s.budgets.GetBudget(ctx, budgetID, ownerID)
	if err != nil {
		return core.Budget{}, err
	}

	if in.Name != "" {
		b.Name = in.Name
	}
	if in.CategoryID != "" {
		b.CategoryID = in.CategoryID
	}
	if !in.Limit.IsZero() {
		b.Limit = in.Limit
	}
	if in.Period != "" {
		b.Period = in.Period
	}
	if !in.StartDate.IsZero() {
		b.StartDate = in.StartDate
	}
	if !in.EndDate.IsZero() {
		b.EndDate = in.EndDate
	}
	if in.AlertThreshold != nil {
		b.AlertThreshold = *in.AlertThreshold
	}
	if in.Active != nil {
		b.Active = *in.Active
	}

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.budgets.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "Budget updated", log.FieldBudgetID, b.ID)
	return b, nil
}

// Delete removes the budget; the store cascades the deletion to its alerts.
func (s *BudgetService) Delete(ctx context.Context, budgetID, ownerID string) error {
	if err := s.budgets.DeleteBudget(ctx, budgetID, ownerID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget deleted", log.FieldBudgetID, budgetID)
	return nil
}

func (s *BudgetService) List(ctx context.Context, ownerID string) ([]core.Budget, error) {
	return s.budgets.ListBudgets(ctx, ownerID)
}

// Alerts returns the owner's recorded alerts, newest first.
func (s *BudgetService) Alerts(ctx context.Context, ownerID string) ([]core.Alert, error) {
	return s.alerts.ListAlerts(ctx, ownerID)
}
