package service

import (
	"fmt"
	"net/http"

	"github.com/splitbase/backend/internal/calculator"
	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/models"
)

func (s *Service) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.store.ListUserTransactions(r.Context(), middleware.GetWallet(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, transactions)
}

type balancesResponse struct {
	// Balances is the per-counterparty, per-currency signed position.
	// Positive means the counterparty owes the viewer.
	Balances calculator.Balances `json:"balances"`

	// Totals is the per-counterparty position converted into the requested
	// currency, present only when ?currency= was given.
	Totals map[string]float64 `json:"totals,omitempty"`

	// Currency echoes the conversion target.
	Currency string `json:"currency,omitempty"`
}

func (s *Service) handleBalances(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetWallet(r.Context())

	transactions, err := s.store.ListUserTransactions(r.Context(), viewer)
	if err != nil {
		s.respondError(w, err)
		return
	}

	settlements, err := s.store.ListUserSettlements(r.Context(), viewer)
	if err != nil {
		s.respondError(w, err)
		return
	}

	balances := calculator.ComputeBalances(viewer, transactions, settlements)

	resp := balancesResponse{Balances: balances}
	if target := r.URL.Query().Get("currency"); target != "" {
		if !currency.Supported(target) {
			s.respondError(w, fmt.Errorf("%w: %s", currency.ErrUnsupportedCurrency, target))
			return
		}

		totals := make(map[string]float64, len(balances))
		for counterparty, buckets := range balances {
			total, err := calculator.ConvertedTotal(buckets, target)
			if err != nil {
				s.respondError(w, err)
				return
			}
			totals[counterparty] = currency.Round2(total)
		}
		resp.Totals = totals
		resp.Currency = target
	}

	writeJSON(w, http.StatusOK, resp)
}
