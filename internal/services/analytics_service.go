package services

import (
	"context"
	"fmt"

	"spendwise/internal/cache"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

// AnalyticsService computes spending summaries over date ranges. Summary
// results are cached per (owner, range); the other operations always hit the
// store.
type AnalyticsService struct {
	txs        TransactionStore
	categories CategoryResolver
	summaries  *cache.LRU[core.Summary]
	logger     *log.Logger
}

func NewAnalyticsService(txs TransactionStore, categories CategoryResolver, summaries *cache.LRU[core.Summary], logger *log.Logger) *AnalyticsService {
	return &AnalyticsService{
		txs:        txs,
		categories: categories,
		summaries:  summaries,
		logger:     logger.WithComponent(log.ComponentAnalytics),
	}
}

// Summary aggregates the owner's transactions in [start, end]. An empty
// range is not an error; it yields zero totals and empty breakdowns.
func (s *AnalyticsService) Summary(ctx context.Context, ownerID string, start, end core.Date) (core.Summary, error) {
	key := summaryKey(ownerID, start, end)
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(key); ok {
			return cached, nil
		}
	}

	txs, err := s.txs.FindTransactions(ctx, ownerID, "", start, end)
	if err != nil {
		return core.Summary{}, fmt.Errorf("find transactions: %w", err)
	}

	summary := core.Aggregate(txs)
	s.resolveNames(ctx, ownerID, summary.ByCategory)

	if s.summaries != nil {
		s.summaries.Set(key, summary)
	}
	s.logger.DebugContext(ctx, "Summary computed",
		log.FieldOwnerID, ownerID,
		log.FieldCount, summary.Count)
	return summary, nil
}

// CategoryWise returns only the per-category breakdown for the range.
func (s *AnalyticsService) CategoryWise(ctx context.Context, ownerID string, start, end core.Date) ([]core.CategoryBreakdown, error) {
	txs, err := s.txs.FindTransactions(ctx, ownerID, "", start, end)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	breakdown := core.Aggregate(txs).ByCategory
	s.resolveNames(ctx, ownerID, breakdown)
	return breakdown, nil
}

// MonthlyTrends returns the per-month buckets for the range, ascending.
func (s *AnalyticsService) MonthlyTrends(ctx context.Context, ownerID string, start, end core.Date) ([]core.MonthlyTrend, error) {
	txs, err := s.txs.FindTransactions(ctx, ownerID, "", start, end)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	return core.Aggregate(txs).ByMonth, nil
}

// TrendAnalysis collapses the whole range into a single bucket labelled
// "<start> to <end>".
func (s *AnalyticsService) TrendAnalysis(ctx context.Context, ownerID string, start, end core.Date) (core.MonthlyTrend, error) {
	txs, err := s.txs.FindTransactions(ctx, ownerID, "", start, end)
	if err != nil {
		return core.MonthlyTrend{}, fmt.Errorf("find transactions: %w", err)
	}
	return core.MonthlyTrend{
		Month:  start.String() + " to " + end.String(),
		Amount: core.SumAmounts(txs),
		Count:  len(txs),
	}, nil
}

// resolveNames fills in display names on category buckets. The sentinel
// bucket gets "Uncategorized"; real IDs go through the resolver, which
// answers "Unknown" for IDs the owner no longer has.
func (s *AnalyticsService) resolveNames(ctx context.Context, ownerID string, breakdown []core.CategoryBreakdown) {
	for i := range breakdown {
		if breakdown[i].CategoryID == core.UncategorizedKey {
			breakdown[i].CategoryName = "Uncategorized"
			continue
		}
		breakdown[i].CategoryName = s.categories.ResolveCategoryName(ctx, breakdown[i].CategoryID, ownerID)
	}
}

func summaryKey(ownerID string, start, end core.Date) string {
	return ownerID + "|" + start.String() + "|" + end.String()
}
