package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/VedantBankewar/payment-gateway/internal/gateway"
	"github.com/VedantBankewar/payment-gateway/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Orchestrator is the handler's view of the checkout core.
type Orchestrator interface {
	CreateOrder(ctx context.Context, sessionID string, shipping domain.ShippingInfo) (*order.CreateOrderResult, error)
	VerifyPayment(ctx context.Context, callback *gateway.Callback) (*order.VerifyResult, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

type CheckoutHandler struct {
	orchestrator Orchestrator
	timeout      time.Duration
}

func NewCheckoutHandler(orchestrator Orchestrator, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		timeout:      timeout,
	}
}

type CreateOrderRequestDTO struct {
	SessionID       string `json:"session_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address"`
	City            string `json:"city"`
	Pincode         string `json:"pincode"`
}

type CreateOrderResponseDTO struct {
	OrderID           string `json:"order_id"`
	GatewaySessionRef string `json:"gateway_session_ref"`
	TotalAmount       int64  `json:"total_amount"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
}

type VerifyResponseDTO struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message"`
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "session_id is required")
		return
	}

	shipping := domain.ShippingInfo{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address:       req.ShippingAddress,
		City:          req.City,
		Pincode:       req.Pincode,
	}

	result, err := h.orchestrator.CreateOrder(ctx, req.SessionID, shipping)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{
		OrderID:           result.Order.ID.String(),
		GatewaySessionRef: result.GatewaySessionRef,
		TotalAmount:       result.Order.TotalAmount,
		Currency:          result.Order.Currency,
		Status:            result.Order.Status.String(),
	})
}

func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var callback gateway.Callback
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.orchestrator.VerifyPayment(ctx, &callback)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	if !result.Success {
		respondJSON(w, http.StatusOK, VerifyResponseDTO{
			Success: false,
			OrderID: result.OrderID.String(),
			Message: "payment failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, VerifyResponseDTO{
		Success: true,
		OrderID: result.OrderID.String(),
		Message: "payment verified successfully",
	})
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	ord, err := h.orchestrator.GetOrder(ctx, orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ord)
}
