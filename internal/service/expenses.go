package service

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/splitbase/backend/internal/calculator"
	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/models"
)

type createExpenseRequest struct {
	Description string  `json:"description" validate:"required,min=1,max=200"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"omitempty,uppercase"`
	PaidBy      string  `json:"paidBy" validate:"omitempty,eth_addr"`
	// Category is free-form and stored as submitted; the closed category set
	// constrains AI suggestions only.
	Category string `json:"category" validate:"max=50"`
	Date     int64  `json:"date" validate:"omitempty,gt=0"`

	// SplitStrategy is "equal" or "exact".
	SplitStrategy string `json:"splitStrategy" validate:"omitempty,oneof=equal exact"`

	// Participants are the members sharing the expense; defaults to every
	// group member.
	Participants []string `json:"participants" validate:"dive,eth_addr"`

	// Splits carries per-member amounts for the exact strategy, as decimal
	// strings keyed by wallet address.
	Splits map[string]string `json:"splits"`
}

type createExpenseResponse struct {
	Expense     *models.Expense     `json:"expense"`
	Transaction *models.Transaction `json:"transaction"`
}

func (s *Service) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	group, err := s.memberGroup(r, chi.URLParam(r, "groupID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	code := req.Currency
	if code == "" {
		code = group.DefaultCurrency
	}
	if !currency.Supported(code) {
		s.respondError(w, fmt.Errorf("%w: %s", currency.ErrUnsupportedCurrency, code))
		return
	}

	paidBy := strings.ToLower(req.PaidBy)
	if paidBy == "" {
		paidBy = middleware.GetWallet(r.Context())
	}
	if !group.HasMember(paidBy) {
		s.respondError(w, fmt.Errorf("%w: payer %s is not a group member", errBadRequest, models.ShortAddress(paidBy)))
		return
	}

	participants := group.Members
	if len(req.Participants) > 0 {
		participants = make([]string, 0, len(req.Participants))
		for _, p := range req.Participants {
			p = strings.ToLower(p)
			if !group.HasMember(p) {
				s.respondError(w, fmt.Errorf("%w: participant %s is not a group member", errBadRequest, models.ShortAddress(p)))
				return
			}
			participants = append(participants, p)
		}
	}

	strategy := calculator.Strategy(req.SplitStrategy)
	if strategy == "" {
		strategy = calculator.StrategyEqual
	}

	shares, err := calculator.BuildSplit(req.Amount, participants, strategy, req.Splits)
	if err != nil {
		s.respondError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := calculator.ValidateSplit(req.Amount, shares); err != nil {
		s.respondError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	expense := &models.Expense{
		GroupID:      group.ID,
		Description:  req.Description,
		Amount:       req.Amount,
		Currency:     code,
		PaidBy:       paidBy,
		SplitBetween: shares,
		Category:     req.Category,
		Date:         req.Date,
	}

	transaction, err := s.store.AddExpense(r.Context(), expense)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createExpenseResponse{
		Expense:     expense,
		Transaction: transaction,
	})
}

func (s *Service) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	group, err := s.memberGroup(r, chi.URLParam(r, "groupID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	expenses, err := s.store.ListGroupExpenses(r.Context(), group.ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}

	writeJSON(w, http.StatusOK, expenses)
}

func (s *Service) handleGroupLedger(w http.ResponseWriter, r *http.Request) {
	group, err := s.memberGroup(r, chi.URLParam(r, "groupID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	viewer := middleware.GetWallet(r.Context())

	expenses, err := s.store.ListGroupExpenses(r.Context(), group.ID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	transactions, err := s.store.ListUserTransactions(r.Context(), viewer)
	if err != nil {
		s.respondError(w, err)
		return
	}

	users, err := s.store.GetUsersByWallets(r.Context(), group.Members)
	if err != nil {
		s.respondError(w, err)
		return
	}
	names := make(map[string]string, len(users))
	for wallet, user := range users {
		names[wallet] = user.DisplayName
	}

	entries := calculator.BuildGroupLedger(viewer, expenses, transactions, names)
	if entries == nil {
		entries = []calculator.LedgerEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}
