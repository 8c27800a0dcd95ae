package service

import (
	"net/http"

	"github.com/splitbase/backend/internal/models"
)

type challengeRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
}

type challengeResponse struct {
	Message string `json:"message"`
}

func (s *Service) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	message, err := s.authenticator.Challenge(req.WalletAddress)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, challengeResponse{Message: message})
}

type verifyRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
	Signature     string `json:"signature" validate:"required"`
}

type verifyResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	token, user, err := s.authenticator.Verify(r.Context(), req.WalletAddress, req.Signature)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{Token: token, User: user})
}
