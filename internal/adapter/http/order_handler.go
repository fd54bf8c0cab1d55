package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cleanbite/ordersync/internal/adapter/logger"
	"github.com/cleanbite/ordersync/internal/app/order"
	"github.com/cleanbite/ordersync/internal/domain"
	"github.com/cleanbite/ordersync/internal/interfaces"
)

// OrderHandler serves the customer display: submission and tracking.
type OrderHandler struct {
	service *order.Service
	feed    *order.FeedListener
	logger  logger.Logger
}

func NewOrderHandler(service *order.Service, feed *order.FeedListener, lgr logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		feed:    feed,
		logger:  lgr,
	}
}

type SubmitOrderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	Items         []OrderItemRequest `json:"items"`
	Notes         *string            `json:"notes,omitempty"`
}

type OrderItemRequest struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Fermented bool    `json:"fermented"`
}

type SubmitOrderResponse struct {
	OrderID     string  `json:"order_id"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
	IsFermented bool    `json:"is_fermented"`
}

func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cmd := interfaces.SubmitOrderCommand{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Notes:         req.Notes,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, interfaces.SubmitOrderItemCommand{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Fermented: item.Fermented,
		})
	}

	result, err := h.service.SubmitOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_submission_failed", "Failed to submit order", "", nil, err)
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	respondJSON(w, http.StatusCreated, SubmitOrderResponse{
		OrderID:     result.ID,
		Status:      string(result.Status),
		TotalAmount: result.TotalAmount,
		IsFermented: result.IsFermented,
	})
}

// HandleOrders routes GET /orders/{id} and GET /orders/{id}/history.
func (h *OrderHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/orders/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.getOrder(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "history":
		h.getHistory(w, r, parts[0])
	default:
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
}

type OrderViewResponse struct {
	OrderID             string     `json:"order_id"`
	Status              string     `json:"status"`
	PaymentStatus       string     `json:"payment_status"`
	TotalAmount         float64    `json:"total_amount"`
	IsFermented         bool       `json:"is_fermented"`
	FermentationPct     *float64   `json:"fermentation_pct,omitempty"`
	AdminAlert          *string    `json:"admin_alert,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, id string) {
	view, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		respondRejection(w, err)
		return
	}

	respondJSON(w, http.StatusOK, OrderViewResponse{
		OrderID:             view.OrderID,
		Status:              string(view.Status),
		PaymentStatus:       string(view.PaymentStatus),
		TotalAmount:         view.TotalAmount,
		IsFermented:         view.IsFermented,
		FermentationPct:     view.FermentationPct,
		AdminAlert:          view.AdminAlert,
		UpdatedAt:           view.UpdatedAt,
		EstimatedCompletion: view.EstimatedCompletion,
	})
}

type TimelineEntryResponse struct {
	Stage     string    `json:"stage"`
	EnteredAt time.Time `json:"entered_at"`
}

func (h *OrderHandler) getHistory(w http.ResponseWriter, r *http.Request, id string) {
	history, err := h.service.GetHistory(r.Context(), id)
	if err != nil {
		respondRejection(w, err)
		return
	}

	resp := make([]TimelineEntryResponse, 0, len(history))
	for _, entry := range history {
		resp = append(resp, TimelineEntryResponse{
			Stage:     string(entry.Stage),
			EnteredAt: entry.EnteredAt,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

type ActivityEntryResponse struct {
	OrderID      string    `json:"order_id,omitempty"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	CustomerName string    `json:"customer_name,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// GetActivity serves the customer display's local feed, newest first.
func (h *OrderHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	respondJSON(w, http.StatusOK, toActivityResponse(h.feed.Recent(10)))
}

func toActivityResponse(entries []domain.ActivityEntry) []ActivityEntryResponse {
	resp := make([]ActivityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, ActivityEntryResponse{
			OrderID:      entry.OrderID,
			Type:         entry.Type,
			Message:      entry.Message,
			CustomerName: entry.CustomerName,
			Timestamp:    entry.Timestamp,
		})
	}
	return resp
}
