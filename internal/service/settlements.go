package service

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/splitbase/backend/internal/chain"
	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/models"
)

type createSettlementRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=eth usdc"`
}

// handleCreateSettlement records the caller's intent to settle their share of
// a transaction. The settlement starts pending; funds move client-side.
func (s *Service) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	var req createSettlementRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	transaction, share, err := s.settleableShare(r, chi.URLParam(r, "transactionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = models.PayNative
	}

	settlement, err := s.store.UpsertSettlement(r.Context(), &models.Settlement{
		TransactionID: transaction.ID,
		ExpenseID:     transaction.ExpenseID,
		PayerID:       share.UserID,
		ReceiverID:    transaction.PaidBy,
		Amount:        share.Amount,
		Currency:      transaction.Currency,
		PaymentMethod: method,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, settlement)
}

type confirmSettlementRequest struct {
	TransactionHash string `json:"transactionHash" validate:"required,startswith=0x,min=10"`
	PaymentMethod   string `json:"paymentMethod" validate:"omitempty,oneof=eth usdc"`
}

// handleConfirmSettlement verifies a client-broadcast transfer on-chain and,
// on success, moves the settlement to completed. Safe to retry: the same hash
// is a no-op, a different hash after completion conflicts.
func (s *Service) handleConfirmSettlement(w http.ResponseWriter, r *http.Request) {
	var req confirmSettlementRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	transaction, share, err := s.settleableShare(r, chi.URLParam(r, "transactionID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = models.PayNative
	}

	onChainAmount, err := settlementChainAmount(share.Amount, transaction.Currency, method)
	if err != nil {
		s.respondError(w, err)
		return
	}

	err = s.chain.VerifyTransfer(r.Context(), chain.Transfer{
		Hash:   req.TransactionHash,
		From:   share.UserID,
		To:     transaction.PaidBy,
		Amount: onChainAmount,
		Method: method,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	settlement, err := s.store.UpsertSettlement(r.Context(), &models.Settlement{
		TransactionID:   transaction.ID,
		ExpenseID:       transaction.ExpenseID,
		PayerID:         share.UserID,
		ReceiverID:      transaction.PaidBy,
		Amount:          share.Amount,
		Currency:        transaction.Currency,
		PaymentMethod:   method,
		TransactionHash: req.TransactionHash,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	// The settlement is durable; event emission is best-effort.
	if err := s.emitter.EmitSettlementCompleted(r.Context(), settlement); err != nil {
		s.logger.Warn("failed to emit settlement event", "settlementId", settlement.ID, "error", err)
	}
	middleware.SettlementsCompleted.WithLabelValues(string(method)).Inc()

	s.logger.Info("settlement completed",
		"settlementId", settlement.ID,
		"transactionId", transaction.ID,
		"hash", settlement.TransactionHash,
	)

	writeJSON(w, http.StatusOK, settlement)
}

// settleableShare loads the transaction and returns the caller's own split
// share. Only a participant can settle, and only their own share; the
// original payer has nothing to settle.
func (s *Service) settleableShare(r *http.Request, transactionID string) (*models.Transaction, *models.SplitShare, error) {
	transaction, err := s.store.GetTransaction(r.Context(), transactionID)
	if err != nil {
		return nil, nil, err
	}

	viewer := middleware.GetWallet(r.Context())
	if viewer == transaction.PaidBy {
		return nil, nil, fmt.Errorf("%w: the original payer has nothing to settle", errBadRequest)
	}

	for i := range transaction.SplitBetween {
		if transaction.SplitBetween[i].UserID == viewer {
			return transaction, &transaction.SplitBetween[i], nil
		}
	}

	return nil, nil, errForbidden
}

// settlementChainAmount converts a ledger amount into the units moved
// on-chain: ether for native transfers, USDC (pegged 1:1 to USD in the rate
// table) for token transfers.
func settlementChainAmount(amount float64, code string, method models.PaymentMethod) (decimal.Decimal, error) {
	target := "ETH"
	if method == models.PayToken {
		target = "USD"
	}

	converted, err := currency.Convert(amount, code, target)
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromFloat(converted), nil
}
