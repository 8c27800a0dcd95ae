package service

import (
	"net/http"
	"time"

	"github.com/splitbase/backend/internal/insights"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/models"
)

type budgetResponse struct {
	Summary      string             `json:"summary"`
	Currency     string             `json:"currency"`
	CurrentMonth float64            `json:"currentMonth"`
	LastMonth    float64            `json:"lastMonth"`
	ByCategory   map[string]float64 `json:"byCategory"`
}

func (s *Service) handleBudgetInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := middleware.GetWallet(ctx)

	user, err := s.store.GetUserByID(ctx, middleware.GetUserID(ctx))
	if err != nil {
		s.respondError(w, err)
		return
	}

	groups, err := s.store.ListGroupsForUser(ctx, viewer)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var expenses []models.Expense
	for _, group := range groups {
		groupExpenses, err := s.store.ListGroupExpenses(ctx, group.ID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		expenses = append(expenses, groupExpenses...)
	}

	now := time.Now().UTC()
	currentKey := insights.MonthKey(now.Unix())
	lastKey := insights.PreviousMonthKey(now)

	monthly := insights.MonthlyShares(viewer, expenses, user.DefaultCurrency)

	var currentExpenses []models.Expense
	for _, expense := range expenses {
		if insights.MonthKey(expense.Date) == currentKey {
			currentExpenses = append(currentExpenses, expense)
		}
	}
	byCategory := insights.CategoryShares(viewer, currentExpenses, user.DefaultCurrency)

	spending := insights.Spending{
		Currency:     user.DefaultCurrency,
		CurrentMonth: monthly[currentKey],
		LastMonth:    monthly[lastKey],
		ByCategory:   byCategory,
	}

	writeJSON(w, http.StatusOK, budgetResponse{
		Summary:      s.advisor.BudgetSummary(ctx, spending),
		Currency:     spending.Currency,
		CurrentMonth: spending.CurrentMonth,
		LastMonth:    spending.LastMonth,
		ByCategory:   byCategory,
	})
}

type categoryRequest struct {
	Description string `json:"description" validate:"required,min=1,max=200"`
}

type categoryResponse struct {
	Category string `json:"category"`
}

func (s *Service) handleCategorySuggestion(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{
		Category: s.advisor.SuggestCategory(r.Context(), req.Description),
	})
}
