package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

type summaryResponse struct {
	TotalExpenses          decimal.Decimal            `json:"totalExpenses"`
	TotalTransactions      int                        `json:"totalTransactions"`
	AverageExpense         decimal.Decimal            `json:"averageExpense"`
	HighestExpense         decimal.Decimal            `json:"highestExpense"`
	LowestExpense          decimal.Decimal            `json:"lowestExpense"`
	CategoryBreakdown      []categoryBreakdownItem    `json:"categoryBreakdown"`
	MonthlyTrends          []monthlyTrendItem         `json:"monthlyTrends"`
	PaymentMethodBreakdown map[string]decimal.Decimal `json:"paymentMethodBreakdown"`
}

type categoryBreakdownItem struct {
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Count        int             `json:"count"`
	Percentage   float64         `json:"percentage"`
}

type monthlyTrendItem struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

func toCategoryItems(breakdown []core.CategoryBreakdown) []categoryBreakdownItem {
	out := make([]categoryBreakdownItem, 0, len(breakdown))
	for _, c := range breakdown {
		out = append(out, categoryBreakdownItem{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			Amount:       c.Amount,
			Count:        c.Count,
			Percentage:   c.Percentage,
		})
	}
	return out
}

func toTrendItems(trends []core.MonthlyTrend) []monthlyTrendItem {
	out := make([]monthlyTrendItem, 0, len(trends))
	for _, m := range trends {
		out = append(out, monthlyTrendItem{Month: m.Month, Amount: m.Amount, Count: m.Count})
	}
	return out
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.analytics.Summary(r.Context(), ownerFrom(r), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalExpenses:          summary.Total,
		TotalTransactions:      summary.Count,
		AverageExpense:         summary.Average,
		HighestExpense:         summary.Highest,
		LowestExpense:          summary.Lowest,
		CategoryBreakdown:      toCategoryItems(summary.ByCategory),
		MonthlyTrends:          toTrendItems(summary.ByMonth),
		PaymentMethodBreakdown: summary.ByPaymentMethod,
	})
}

func (s *Server) handleCategoryWise(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	breakdown, err := s.analytics.CategoryWise(r.Context(), ownerFrom(r), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryItems(breakdown))
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	trends, err := s.analytics.MonthlyTrends(r.Context(), ownerFrom(r), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrendItems(trends))
}

type ratesResponse struct {
	BaseCurrency string                     `json:"baseCurrency"`
	Rates        map[string]decimal.Decimal `json:"rates"`
	LastUpdated  time.Time                  `json:"lastUpdated"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	latest, err := s.rates.Latest(r.Context(), r.URL.Query().Get("base"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratesResponse{
		BaseCurrency: latest.BaseCurrency,
		Rates:        latest.Rates,
		LastUpdated:  latest.LastUpdated,
	})
}
