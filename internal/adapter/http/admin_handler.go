package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/app/admin"
	"github.com/cleanbite/ordersync/internal/domain"
)

// AdminHandler serves the administrative console.
type AdminHandler struct {
	service *admin.Service
	logger  logger.Logger
}

func NewAdminHandler(service *admin.Service, lgr logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  lgr,
	}
}

type UnlockRequest struct {
	Operator string `json:"operator"`
}

// HandleOrders routes the admin order actions:
//
//	POST /admin/orders/{id}/verify-payment
//	POST /admin/orders/{id}/status
//	POST /admin/orders/{id}/cancel
//	POST /admin/orders/{id}/unlock
func (h *AdminHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/admin/orders/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	orderID, action := parts[0], parts[1]

	switch action {
	case "verify-payment":
		h.respondOrder(w)(h.service.VerifyPayment(r.Context(), orderID))

	case "status":
		var req SetStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
		h.respondOrder(w)(h.service.SetStatus(r.Context(), orderID, domain.Status(req.Status)))

	case "cancel":
		h.respondOrder(w)(h.service.Cancel(r.Context(), orderID))

	case "unlock":
		var req UnlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Operator == "" {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "operator is required"})
			return
		}
		if err := h.service.Unlock(r.Context(), orderID, req.Operator); err != nil {
			respondRejection(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "result": "unlocked"})

	default:
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
}

func (h *AdminHandler) respondOrder(w http.ResponseWriter) func(*domain.Order, error) {
	return func(order *domain.Order, err error) {
		if err != nil {
			respondRejection(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SetStatusResponse{
			OrderID: order.ID,
			Status:  string(order.Status),
			Version: order.Version,
		})
	}
}

// GetActivity serves the durable activity trail, newest first.
func (h *AdminHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	entries, err := h.service.Activity(r.Context(), limit)
	if err != nil {
		respondRejection(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toActivityResponse(entries))
}
