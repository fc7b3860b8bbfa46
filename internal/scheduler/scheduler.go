// Package scheduler runs the calendar-time jobs: the daily budget sweep and
// the weekly spending digest.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

// alertChecker re-evaluates one (owner, category) budget scope.
type alertChecker interface {
	CheckAndAlert(ctx context.Context, ownerID, categoryID string) error
}

type budgetLister interface {
	FindAllActiveBudgets(ctx context.Context) ([]core.Budget, error)
}

type userLister interface {
	ListActiveUsers(ctx context.Context) ([]core.User, error)
}

type transactionFinder interface {
	FindTransactions(ctx context.Context, ownerID, categoryID string, start, end core.Date) ([]core.Transaction, error)
}

type notificationPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// Config carries the cron expressions and fan-out bound for the jobs.
type Config struct {
	BudgetSweepSpec  string
	WeeklyDigestSpec string
	MaxConcurrent    int
}

// Scheduler owns the cron runner. Jobs are also exposed as methods so they
// can be invoked directly.
type Scheduler struct {
	cron      *cron.Cron
	checker   alertChecker
	budgets   budgetLister
	users     userLister
	txs       transactionFinder
	publisher notificationPublisher
	cfg       Config
	logger    *log.Logger

	// Now is the clock used for digest windows; tests override it.
	Now func() core.Date
}

func New(checker alertChecker, budgets budgetLister, users userLister, txs transactionFinder, publisher notificationPublisher, cfg Config, logger *log.Logger) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Scheduler{
		cron:      cron.New(),
		checker:   checker,
		budgets:   budgets,
		users:     users,
		txs:       txs,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.WithComponent(log.ComponentScheduler),
		Now:       core.Today,
	}
}

// Start registers the jobs and starts the cron runner in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.BudgetSweepSpec, func() {
		if err := s.RunBudgetSweep(context.Background()); err != nil {
			s.logger.Error("Budget sweep failed", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("register budget sweep: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.WeeklyDigestSpec, func() {
		if err := s.RunWeeklyDigest(context.Background()); err != nil {
			s.logger.Error("Weekly digest failed", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("register weekly digest: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		"budget_sweep", s.cfg.BudgetSweepSpec,
		"weekly_digest", s.cfg.WeeklyDigestSpec)
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunBudgetSweep re-checks every active category-scoped budget. Budgets with
// no category scope are skipped; the write-path hook is the only thing that
// evaluates those. A failing check is logged and the sweep moves on.
func (s *Scheduler) RunBudgetSweep(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting daily budget check job")

	budgets, err := s.budgets.FindAllActiveBudgets(ctx)
	if err != nil {
		return fmt.Errorf("list active budgets: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, b := range budgets {
		if b.CategoryID == "" {
			continue
		}
		g.Go(func() error {
			if err := s.checker.CheckAndAlert(ctx, b.OwnerID, b.CategoryID); err != nil {
				s.logger.ErrorContext(ctx, "Failed to check budget",
					log.FieldError, err,
					log.FieldBudgetID, b.ID,
					log.FieldOwnerID, b.OwnerID)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.InfoContext(ctx, "Daily budget check completed", log.FieldCount, len(budgets))
	return nil
}

// RunWeeklyDigest enqueues a trailing seven day spending summary for every
// active user. A failing unit is logged and the rest of the batch proceeds.
func (s *Scheduler) RunWeeklyDigest(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting weekly summary job")

	users, err := s.users.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	end := s.Now()
	start := core.DateOf(end.AddDate(0, 0, -7))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, u := range users {
		g.Go(func() error {
			if err := s.digestForUser(ctx, u, start, end); err != nil {
				s.logger.ErrorContext(ctx, "Failed to send weekly summary",
					log.FieldError, err,
					log.FieldUserID, u.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.InfoContext(ctx, "Weekly summary job completed", log.FieldCount, len(users))
	return nil
}

func (s *Scheduler) digestForUser(ctx context.Context, u core.User, start, end core.Date) error {
	txs, err := s.txs.FindTransactions(ctx, u.ID, "", start, end)
	if err != nil {
		return fmt.Errorf("find transactions: %w", err)
	}

	total := core.SumAmounts(txs)
	body := fmt.Sprintf("Here's your weekly expense summary:\n\n"+
		"Total Spent: %s\n"+
		"Number of Transactions: %d\n\n"+
		"Log in to SpendWise to see detailed analytics and manage your expenses.",
		total.StringFixed(2), len(txs))

	msg := amqp.NewNotificationMessage(u.ID, "Your Weekly Expense Summary", body)
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	return nil
}
