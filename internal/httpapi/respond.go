package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/VedantBankewar/payment-gateway/internal/catalog"
	"github.com/VedantBankewar/payment-gateway/internal/cart"
	"github.com/VedantBankewar/payment-gateway/internal/gateway"
	"github.com/VedantBankewar/payment-gateway/internal/order"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError converts domain sentinels to HTTP status codes.
func handleDomainError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		httpStatus = http.StatusBadRequest
		code = "invalid_quantity"
	case errors.Is(err, cart.ErrProductNotInCart):
		httpStatus = http.StatusNotFound
		code = "product_not_in_cart"
	case errors.Is(err, catalog.ErrProductNotFound):
		httpStatus = http.StatusNotFound
		code = "product_not_found"
	case errors.Is(err, order.ErrEmptyCart):
		httpStatus = http.StatusBadRequest
		code = "empty_cart"
	case errors.Is(err, order.ErrInvalidShippingInfo):
		httpStatus = http.StatusBadRequest
		code = "invalid_shipping_info"
	case errors.Is(err, order.ErrCheckoutInProgress):
		// Retryable conflict: one in-flight checkout per session.
		httpStatus = http.StatusConflict
		code = "checkout_in_progress"
	case errors.Is(err, order.ErrOrderNotFound):
		httpStatus = http.StatusNotFound
		code = "order_not_found"
	case errors.Is(err, order.ErrReplayOrMismatch):
		httpStatus = http.StatusBadRequest
		code = "replay_or_mismatch"
	case errors.Is(err, gateway.ErrVerificationFailed):
		httpStatus = http.StatusBadRequest
		code = "verification_failed"
	case errors.Is(err, gateway.ErrInvalidAmount):
		httpStatus = http.StatusBadRequest
		code = "invalid_amount"
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		httpStatus = http.StatusServiceUnavailable
		code = "gateway_unavailable"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	if httpStatus == http.StatusInternalServerError {
		respondError(w, httpStatus, code, "internal server error")
		return
	}
	respondError(w, httpStatus, code, err.Error())
}
