package service

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/middleware"
	"github.com/splitbase/backend/internal/models"
)

type createGroupRequest struct {
	Name            string   `json:"name" validate:"required,min=1,max=100"`
	Description     string   `json:"description" validate:"max=500"`
	Members         []string `json:"members" validate:"dive,eth_addr"`
	DefaultCurrency string   `json:"defaultCurrency" validate:"omitempty,uppercase"`
}

func (s *Service) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	code := req.DefaultCurrency
	if code == "" {
		code = currency.DefaultCode
	}
	if !currency.Supported(code) {
		s.respondError(w, fmt.Errorf("%w: %s", currency.ErrUnsupportedCurrency, code))
		return
	}

	creator := middleware.GetWallet(r.Context())
	members := []string{creator}
	for _, member := range req.Members {
		member = strings.ToLower(member)
		if !slices.Contains(members, member) {
			members = append(members, member)
		}
	}

	group := &models.Group{
		Name:            req.Name,
		Description:     req.Description,
		Creator:         creator,
		Members:         members,
		DefaultCurrency: code,
	}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (s *Service) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroupsForUser(r.Context(), middleware.GetWallet(r.Context()))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if groups == nil {
		groups = []*models.Group{}
	}

	writeJSON(w, http.StatusOK, groups)
}

func (s *Service) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.memberGroup(r, chi.URLParam(r, "groupID"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// memberGroup loads the group and enforces that the caller belongs to it.
func (s *Service) memberGroup(r *http.Request, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(middleware.GetWallet(r.Context())) {
		return nil, errForbidden
	}
	return group, nil
}
