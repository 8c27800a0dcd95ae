// Package service implements the HTTP API on top of the storage, chain, auth
// and insights layers.
package service

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/splitbase/backend/internal/auth"
	"github.com/splitbase/backend/internal/chain"
	"github.com/splitbase/backend/internal/events"
	"github.com/splitbase/backend/internal/insights"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/storage"
)

// Service bundles the API handlers and their dependencies.
type Service struct {
	store         storage.Store
	authenticator *auth.Authenticator
	tokens        *auth.JWTManager
	chain         chain.Gateway
	emitter       events.Emitter
	advisor       *insights.Advisor
	validate      *validator.Validate
	logger        *slog.Logger
}

// New creates a Service.
func New(
	store storage.Store,
	authenticator *auth.Authenticator,
	tokens *auth.JWTManager,
	gateway chain.Gateway,
	emitter events.Emitter,
	advisor *insights.Advisor,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:         store,
		authenticator: authenticator,
		tokens:        tokens,
		chain:         gateway,
		emitter:       emitter,
		advisor:       advisor,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
}

// Routes registers the API under the given router.
func (s *Service) Routes(r chi.Router) {
	r.Post("/auth/challenge", s.handleChallenge)
	r.Post("/auth/verify", s.handleVerify)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(s.tokens))

		r.Get("/me", s.handleMe)
		r.Patch("/me", s.handlePatchMe)

		r.Post("/groups", s.handleCreateGroup)
		r.Get("/groups", s.handleListGroups)
		r.Get("/groups/{groupID}", s.handleGetGroup)
		r.Post("/groups/{groupID}/expenses", s.handleCreateExpense)
		r.Get("/groups/{groupID}/expenses", s.handleListExpenses)
		r.Get("/groups/{groupID}/ledger", s.handleGroupLedger)

		r.Get("/transactions", s.handleListTransactions)
		r.Get("/balances", s.handleBalances)

		r.Post("/transactions/{transactionID}/settlements", s.handleCreateSettlement)
		r.Post("/transactions/{transactionID}/settlements/confirm", s.handleConfirmSettlement)

		r.Get("/wallet/balances", s.handleWalletBalances)

		r.Get("/insights/budget", s.handleBudgetInsights)
		r.Post("/insights/category", s.handleCategorySuggestion)
	})
}
