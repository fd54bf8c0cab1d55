package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/app/kitchen"
	"github.com/cleanbite/ordersync/internal/domain"
)

// KitchenHandler serves the kitchen display: the derived aggregate view and
// status proposals from kitchen staff.
type KitchenHandler struct {
	service *kitchen.Service
	logger  logger.Logger
}

func NewKitchenHandler(service *kitchen.Service, lgr logger.Logger) *KitchenHandler {
	return &KitchenHandler{
		service: service,
		logger:  lgr,
	}
}

type KitchenSummaryResponse struct {
	Counts      map[string]int `json:"counts"`
	TotalActive int            `json:"total_active"`
	RebuiltAt   time.Time      `json:"rebuilt_at"`
}

func (h *KitchenHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	agg := h.service.Aggregate()
	if agg == nil {
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "aggregate not built yet"})
		return
	}

	counts := make(map[string]int, len(agg.Counts))
	for status, n := range agg.Counts {
		counts[string(status)] = n
	}

	respondJSON(w, http.StatusOK, KitchenSummaryResponse{
		Counts:      counts,
		TotalActive: agg.TotalActive,
		RebuiltAt:   agg.RebuiltAt,
	})
}

type QueueEntryResponse struct {
	OrderID         string    `json:"order_id"`
	CustomerName    string    `json:"customer_name"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	IsFermented     bool      `json:"is_fermented"`
	AdminAlert      *string   `json:"admin_alert,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	LastStatusMoved time.Time `json:"last_status_moved"`
}

func (h *KitchenHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	agg := h.service.Aggregate()
	if agg == nil {
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "aggregate not built yet"})
		return
	}

	resp := make([]QueueEntryResponse, 0, len(agg.Active))
	for _, o := range agg.Active {
		resp = append(resp, QueueEntryResponse{
			OrderID:         o.ID,
			CustomerName:    o.CustomerName,
			Status:          string(o.Status),
			PaymentStatus:   string(o.PaymentStatus),
			IsFermented:     o.IsFermented,
			AdminAlert:      o.AdminAlert,
			CreatedAt:       o.CreatedAt,
			LastStatusMoved: o.LastStatusChange,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type SetStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

// HandleOrderStatus routes POST /kitchen/orders/{id}/status.
func (h *KitchenHandler) HandleOrderStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/kitchen/orders/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[1] != "status" {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	orderID := parts[0]

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.ProposeStatus(r.Context(), orderID, domain.Status(req.Status))
	if err != nil {
		respondRejection(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SetStatusResponse{
		OrderID: result.ID,
		Status:  string(result.Status),
		Version: result.Version,
	})
}
