package service

import (
	"fmt"
	"net/http"

	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/middleware"
)

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type patchMeRequest struct {
	DisplayName     *string `json:"displayName" validate:"omitempty,min=1,max=64"`
	DefaultCurrency *string `json:"defaultCurrency" validate:"omitempty,uppercase"`
}

func (s *Service) handlePatchMe(w http.ResponseWriter, r *http.Request) {
	var req patchMeRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	user, err := s.store.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.DefaultCurrency != nil {
		if !currency.Supported(*req.DefaultCurrency) {
			s.respondError(w, fmt.Errorf("%w: %s", currency.ErrUnsupportedCurrency, *req.DefaultCurrency))
			return
		}
		user.DefaultCurrency = *req.DefaultCurrency
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
