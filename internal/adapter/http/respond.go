package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleanbite/ordersync/internal/domain"
)

type ErrorResponse struct {
	Error      string `json:"error"`
	ReasonCode string `json:"reason_code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondRejection turns a domain rejection into the structured response
// the initiating display uses to re-render from a fresh read.
func respondRejection(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLockedOrder),
		errors.Is(err, domain.ErrRegressionRejected),
		errors.Is(err, domain.ErrStaleWriteConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAdminRequired):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPolicyInvariantViolation):
		status = http.StatusInternalServerError
	}

	respondJSON(w, status, ErrorResponse{
		Error:      err.Error(),
		ReasonCode: domain.ReasonCode(err),
	})
}
