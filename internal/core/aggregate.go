package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Sentinel bucket keys for records missing a category or payment method.
const (
	UncategorizedKey = "uncategorized"
	UnknownMethodKey = "UNKNOWN"
)

type (
	// CategoryBreakdown is one category bucket of a Summary. CategoryName is
	// left empty by Aggregate; resolving display names is the caller's job.
	CategoryBreakdown struct {
		CategoryID   string
		CategoryName string
		Amount       decimal.Decimal
		Count        int
		Percentage   float64
	}

	// MonthlyTrend is one "YYYY-MM" bucket of a Summary.
	MonthlyTrend struct {
		Month  string
		Amount decimal.Decimal
		Count  int
	}

	// Summary is the derived aggregate over a transaction set. It is never
	// persisted.
	Summary struct {
		Total           decimal.Decimal
		Count           int
		Average         decimal.Decimal
		Highest         decimal.Decimal
		Lowest          decimal.Decimal
		ByCategory      []CategoryBreakdown
		ByMonth         []MonthlyTrend
		ByPaymentMethod map[string]decimal.Decimal
	}
)

// SumAmounts adds up the amounts of txs with exact decimal addition.
func SumAmounts(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// Aggregate reduces a transaction set into totals and breakdowns. An empty
// input is not an error: it yields zero totals and empty breakdowns.
//
// Category buckets are ordered by amount descending, ties broken by the order
// in which each category was first encountered. Monthly buckets are ordered
// ascending by their zero-padded "YYYY-MM" key. Payment-method buckets carry
// no ordering.
func Aggregate(txs []Transaction) Summary {
	s := Summary{
		Total:           decimal.Zero,
		Average:         decimal.Zero,
		Highest:         decimal.Zero,
		Lowest:          decimal.Zero,
		ByCategory:      []CategoryBreakdown{},
		ByMonth:         []MonthlyTrend{},
		ByPaymentMethod: map[string]decimal.Decimal{},
	}
	if len(txs) == 0 {
		return s
	}

	s.Count = len(txs)
	s.Highest = txs[0].Amount
	s.Lowest = txs[0].Amount

	catIdx := map[string]int{}
	monthIdx := map[string]int{}

	for _, t := range txs {
		s.Total = s.Total.Add(t.Amount)
		if t.Amount.GreaterThan(s.Highest) {
			s.Highest = t.Amount
		}
		if t.Amount.LessThan(s.Lowest) {
			s.Lowest = t.Amount
		}

		catKey := t.CategoryID
		if catKey == "" {
			catKey = UncategorizedKey
		}
		i, ok := catIdx[catKey]
		if !ok {
			i = len(s.ByCategory)
			catIdx[catKey] = i
			s.ByCategory = append(s.ByCategory, CategoryBreakdown{CategoryID: catKey, Amount: decimal.Zero})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(t.Amount)
		s.ByCategory[i].Count++

		monthKey := t.Date.YearMonth()
		j, ok := monthIdx[monthKey]
		if !ok {
			j = len(s.ByMonth)
			monthIdx[monthKey] = j
			s.ByMonth = append(s.ByMonth, MonthlyTrend{Month: monthKey, Amount: decimal.Zero})
		}
		s.ByMonth[j].Amount = s.ByMonth[j].Amount.Add(t.Amount)
		s.ByMonth[j].Count++

		method := string(t.PaymentMethod)
		if method == "" {
			method = UnknownMethodKey
		}
		cur, ok := s.ByPaymentMethod[method]
		if !ok {
			cur = decimal.Zero
		}
		s.ByPaymentMethod[method] = cur.Add(t.Amount)
	}

	s.Average = s.Total.DivRound(decimal.NewFromInt(int64(s.Count)), currencyScale)

	for i := range s.ByCategory {
		s.ByCategory[i].Percentage = Percentage(s.ByCategory[i].Amount, s.Total)
	}

	// Buckets were appended in first-encounter order, so a stable sort keeps
	// that order for equal amounts.
	sort.SliceStable(s.ByCategory, func(a, b int) bool {
		return s.ByCategory[a].Amount.GreaterThan(s.ByCategory[b].Amount)
	})
	sort.Slice(s.ByMonth, func(a, b int) bool {
		return s.ByMonth[a].Month < s.ByMonth[b].Month
	})

	return s
}
