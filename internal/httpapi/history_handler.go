package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HistoryHandler serves the read-only order and billing history pages.
// Unknown emails get empty collections, never errors.
type HistoryHandler struct {
	store   ledger.Store
	timeout time.Duration
}

func NewHistoryHandler(store ledger.Store, timeout time.Duration) *HistoryHandler {
	return &HistoryHandler{
		store:   store,
		timeout: timeout,
	}
}

func (h *HistoryHandler) OrdersByEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	email := chi.URLParam(r, "email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "missing_email", "email is required")
		return
	}

	orders, err := h.store.OrdersByEmail(ctx, email)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *HistoryHandler) BillingByEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	email := chi.URLParam(r, "email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "missing_email", "email is required")
		return
	}

	records, err := h.store.BillingByEmail(ctx, email)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func (h *HistoryHandler) BillingByOrderID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	record, err := h.store.BillingByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no billing record for order")
			return
		}
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}
