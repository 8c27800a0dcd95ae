package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/splitbase/backend/internal/auth"
	"github.com/splitbase/backend/internal/chain"
	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/storage"
)

var (
	// errForbidden marks permission failures raised inside handlers.
	errForbidden = errors.New("caller is not allowed to access this resource")

	// errBadRequest marks malformed or semantically invalid request input.
	errBadRequest = errors.New("invalid request")
)

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	writeJSON(w, status, errorResponse{Error: errorDetail{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}})
}

// respondError maps domain errors onto the HTTP error taxonomy.
func (s *Service) respondError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		writeError(w, http.StatusBadRequest, "validation", validationMessage(validationErrs), false)
	case errors.Is(err, errBadRequest),
		errors.Is(err, currency.ErrUnsupportedCurrency),
		errors.Is(err, chain.ErrTransferMismatch):
		writeError(w, http.StatusBadRequest, "validation", err.Error(), false)
	case errors.Is(err, auth.ErrNoChallenge),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error(), false)
	case errors.Is(err, errForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error(), false)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), false)
	case errors.Is(err, storage.ErrSettlementConflict),
		errors.Is(err, storage.ErrHashReused):
		writeError(w, http.StatusConflict, "conflict", err.Error(), false)
	case errors.Is(err, chain.ErrTxNotFound),
		errors.Is(err, chain.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "upstream", err.Error(), true)
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error", false)
	}
}

// decode parses the JSON body into v and runs struct validation.
func (s *Service) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", errBadRequest)
	}
	return s.validate.Struct(v)
}

// validationMessage names the first violated constraint so clients can point
// at the offending field.
func validationMessage(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "invalid request"
	}
	first := errs[0]
	return fmt.Sprintf("field %s failed the %q constraint", first.Field(), first.Tag())
}
