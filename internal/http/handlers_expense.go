package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

type expenseRequest struct {
	CategoryID        string `json:"categoryId"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	PaymentMethod     string `json:"paymentMethod"`
	IsRecurring       *bool  `json:"isRecurring"`
	RecurrencePattern string `json:"recurrencePattern"`
}

type expenseResponse struct {
	ID                string          `json:"id"`
	CategoryID        string          `json:"categoryId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Description       string          `json:"description,omitempty"`
	Date              string          `json:"date"`
	PaymentMethod     string          `json:"paymentMethod"`
	IsRecurring       bool            `json:"isRecurring"`
	RecurrencePattern string          `json:"recurrencePattern,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func toExpenseResponse(t core.Transaction) expenseResponse {
	return expenseResponse{
		ID:                t.ID,
		CategoryID:        t.CategoryID,
		Amount:            t.Amount,
		Currency:          t.Currency,
		Description:       t.Description,
		Date:              t.Date.String(),
		PaymentMethod:     string(t.PaymentMethod),
		IsRecurring:       t.Recurring,
		RecurrencePattern: string(t.Recurrence),
		CreatedAt:         t.CreatedAt,
	}
}

// toExpenseInput converts the wire request into a service input, validating
// the literal fields. Absent fields stay nil.
func toExpenseInput(req expenseRequest) (services.ExpenseInput, error) {
	in := services.ExpenseInput{
		CategoryID:    req.CategoryID,
		Currency:      req.Currency,
		Description:   req.Description,
		PaymentMethod: core.PaymentMethod(req.PaymentMethod),
		Recurring:     req.IsRecurring,
		Recurrence:    core.RecurrencePattern(req.RecurrencePattern),
	}
	if req.Amount != "" {
		amount, err := core.ParseAmount(req.Amount)
		if err != nil {
			return services.ExpenseInput{}, err
		}
		in.Amount = &amount
	}
	if req.Date != "" {
		date, err := core.ParseDate(req.Date)
		if err != nil {
			return services.ExpenseInput{}, err
		}
		in.Date = &date
	}
	return in, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := toExpenseInput(req)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.expenses.Create(r.Context(), ownerFrom(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}

	txs, err := s.expenses.ListRange(r.Context(), ownerFrom(r), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]expenseResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toExpenseResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	t, err := s.expenses.Get(r.Context(), r.PathValue("id"), ownerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(t))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := toExpenseInput(req)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.expenses.Update(r.Context(), r.PathValue("id"), ownerFrom(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Delete(r.Context(), r.PathValue("id"), ownerFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "expense deleted")
}

// dateRange parses the required startDate and endDate query parameters.
func dateRange(r *http.Request) (core.Date, core.Date, error) {
	start, err := core.ParseDate(r.URL.Query().Get("startDate"))
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	end, err := core.ParseDate(r.URL.Query().Get("endDate"))
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	return start, end, nil
}
