package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

type budgetRequest struct {
	CategoryID     string `json:"categoryId"`
	Name           string `json:"name"`
	Limit          string `json:"limit"`
	Period         string `json:"period"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	AlertThreshold *int   `json:"alertThreshold"`
	IsActive       *bool  `json:"isActive"`
}

type budgetResponse struct {
	ID             string          `json:"id"`
	CategoryID     string          `json:"categoryId,omitempty"`
	Name           string          `json:"name"`
	Limit          decimal.Decimal `json:"limit"`
	Period         string          `json:"period"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate,omitempty"`
	AlertThreshold int             `json:"alertThreshold"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type budgetStatusResponse struct {
	BudgetID       string          `json:"budgetId"`
	BudgetName     string          `json:"budgetName"`
	CategoryID     string          `json:"categoryId,omitempty"`
	CategoryName   string          `json:"categoryName"`
	Limit          decimal.Decimal `json:"limit"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed float64         `json:"percentageUsed"`
	Status         string          `json:"status"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	resp := budgetResponse{
		ID:             b.ID,
		CategoryID:     b.CategoryID,
		Name:           b.Name,
		Limit:          b.Limit,
		Period:         string(b.Period),
		StartDate:      b.StartDate.String(),
		AlertThreshold: b.AlertThreshold,
		IsActive:       b.Active,
		CreatedAt:      b.CreatedAt,
	}
	if !b.EndDate.IsZero() {
		resp.EndDate = b.EndDate.String()
	}
	return resp
}

func toBudgetInput(req budgetRequest) (services.BudgetInput, error) {
	in := services.BudgetInput{
		CategoryID:     req.CategoryID,
		Name:           req.Name,
		Period:         core.PeriodType(req.Period),
		AlertThreshold: req.AlertThreshold,
		Active:         req.IsActive,
	}
	if req.Limit != "" {
		limit, err := core.ParseAmount(req.Limit)
		if err != nil {
			return services.BudgetInput{}, core.ErrInvalidLimit
		}
		in.Limit = limit
	}
	if req.StartDate != "" {
		start, err := core.ParseDate(req.StartDate)
		if err != nil {
			return services.BudgetInput{}, err
		}
		in.StartDate = start
	}
	if req.EndDate != "" {
		end, err := core.ParseDate(req.EndDate)
		if err != nil {
			return services.BudgetInput{}, err
		}
		in.EndDate = end
	}
	return in, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.List(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := toBudgetInput(req)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.budgets.Create(r.Context(), ownerFrom(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := toBudgetInput(req)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.budgets.Update(r.Context(), r.PathValue("id"), ownerFrom(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.Delete(r.Context(), r.PathValue("id"), ownerFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "budget deleted")
}

type alertResponse struct {
	ID          string    `json:"id"`
	BudgetID    string    `json:"budgetId"`
	Kind        string    `json:"alertType"`
	Message     string    `json:"message"`
	IsNotified  bool      `json:"isNotified"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.budgets.Alerts(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:          a.ID,
			BudgetID:    a.BudgetID,
			Kind:        string(a.Kind),
			Message:     a.Message,
			IsNotified:  a.Notified,
			TriggeredAt: a.TriggeredAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.budgets.Status(r.Context(), r.PathValue("id"), ownerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetStatusResponse{
		BudgetID:       status.BudgetID,
		BudgetName:     status.BudgetName,
		CategoryID:     status.CategoryID,
		CategoryName:   status.CategoryName,
		Limit:          status.Limit,
		Spent:          status.Spent,
		Remaining:      status.Remaining,
		PercentageUsed: status.PercentageUsed,
		Status:         status.Status,
	})
}
