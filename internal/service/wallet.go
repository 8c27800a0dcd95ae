package service

import (
	"net/http"

	"github.com/splitbase/backend/internal/middleware"
)

type walletBalancesResponse struct {
	Address string `json:"address"`
	ETH     string `json:"eth"`
	USDC    string `json:"usdc"`
}

func (s *Service) handleWalletBalances(w http.ResponseWriter, r *http.Request) {
	address := middleware.GetWallet(r.Context())

	native, err := s.chain.NativeBalance(r.Context(), address)
	if err != nil {
		s.respondError(w, err)
		return
	}

	token, err := s.chain.TokenBalance(r.Context(), address)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, walletBalancesResponse{
		Address: address,
		ETH:     native.String(),
		USDC:    token.String(),
	})
}
