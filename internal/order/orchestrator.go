package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/VedantBankewar/payment-gateway/internal/gateway"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartStore is the orchestrator's view of the cart service.
type CartStore interface {
	Snapshot(ctx context.Context, sessionID, currency string) (*domain.CartSnapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

// BillingLedger is the orchestrator's view of the billing history store.
type BillingLedger interface {
	Append(ctx context.Context, record *domain.BillingRecord) error
	BillingByTxnID(ctx context.Context, txnID string) (*domain.BillingRecord, error)
}

type CreateOrderResult struct {
	Order             *domain.Order
	GatewaySessionRef string
}

type VerifyResult struct {
	OrderID uuid.UUID
	Success bool
}

// Orchestrator owns the order lifecycle: it turns a mutable cart into an
// immutable order, drives the gateway adapter and commits final state. No
// other component mutates order status.
type Orchestrator struct {
	repo           Repository
	carts          CartStore
	gw             gateway.Adapter
	ledger         BillingLedger
	currency       string
	gatewayTimeout time.Duration
	logger         *zap.Logger
}

func NewOrchestrator(
	repo Repository,
	carts CartStore,
	gw gateway.Adapter,
	ledger BillingLedger,
	currency string,
	gatewayTimeout time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		repo:           repo,
		carts:          carts,
		gw:             gw,
		ledger:         ledger,
		currency:       currency,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
	}
}

// CreateOrder materializes an order from a cart snapshot and opens a gateway
// payment session. The cart is left untouched: it is only cleared after a
// verified successful payment, so a failed attempt stays retryable.
func (o *Orchestrator) CreateOrder(ctx context.Context, sessionID string, shipping domain.ShippingInfo) (*CreateOrderResult, error) {
	if err := validateShipping(shipping); err != nil {
		return nil, err
	}

	snapshot, err := o.carts.Snapshot(ctx, sessionID, o.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot cart: %w", err)
	}
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	ord := domain.NewOrderFromSnapshot(snapshot, shipping)
	if err := o.repo.CreateOrder(ctx, ord); err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, o.gatewayTimeout)
	defer cancel()
	sessionRef, err := o.gw.CreateSession(gwCtx, ord.ID.String(), ord.TotalAmount, ord.Currency)
	if err != nil {
		// The order fails, the cart survives; a retry creates a fresh order.
		if markErr := o.repo.MarkOrderFailed(ctx, ord.ID, "gateway session creation failed"); markErr != nil {
			o.logger.Error("failed to mark order failed after gateway error",
				zap.String("order_id", ord.ID.String()), zap.Error(markErr))
		}
		return nil, err
	}

	if err := o.repo.SetPaymentPending(ctx, ord.ID, sessionRef); err != nil {
		// A stuck CREATED order would block the session forever; fail it so
		// the shopper can retry.
		if markErr := o.repo.MarkOrderFailed(ctx, ord.ID, "failed to record gateway session"); markErr != nil {
			o.logger.Error("failed to mark order failed after pending update error",
				zap.String("order_id", ord.ID.String()), zap.Error(markErr))
		}
		// TODO: sweep gateway sessions opened for orders that never reached
		// PAYMENT_PENDING; the session stays open at the processor until it
		// expires on its own.
		return nil, fmt.Errorf("failed to store gateway session: %w", err)
	}

	ord.Status = domain.OrderStatusPaymentPending
	ord.GatewaySessionRef = sessionRef
	o.logger.Info("order created, payment pending",
		zap.String("order_id", ord.ID.String()),
		zap.String("gateway_session_ref", sessionRef),
		zap.Int64("total_amount", ord.TotalAmount))

	return &CreateOrderResult{Order: ord, GatewaySessionRef: sessionRef}, nil
}

// VerifyPayment resolves a gateway callback. Redelivery of an already applied
// transaction returns the recorded outcome without a second billing record or
// cart clear.
func (o *Orchestrator) VerifyPayment(ctx context.Context, callback *gateway.Callback) (*VerifyResult, error) {
	outcome, err := o.gw.Verify(callback)
	if err != nil {
		// Fail closed. An unverified callback is untrusted input regardless
		// of its claimed success flag.
		o.logger.Warn("payment callback rejected",
			zap.String("gateway_session_ref", refOf(callback)),
			zap.String("gateway_txn_id", txnOf(callback)),
			zap.Error(err))
		o.failOrderForCallback(ctx, callback)
		return nil, gateway.ErrVerificationFailed
	}

	// Duplicate delivery: return the outcome recorded the first time.
	if existing, lookupErr := o.ledger.BillingByTxnID(ctx, outcome.TransactionID); lookupErr == nil && existing != nil {
		o.logger.Info("duplicate callback delivery, returning recorded outcome",
			zap.String("gateway_txn_id", outcome.TransactionID),
			zap.String("order_id", existing.OrderID.String()))
		return &VerifyResult{
			OrderID: existing.OrderID,
			Success: existing.Status == domain.BillingStatusSuccess,
		}, nil
	}

	ord, err := o.repo.GetOrderByGatewayRef(ctx, outcome.SessionRef)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// A signed callback for a session we never issued is still
			// untrusted.
			o.logger.Warn("callback references unknown gateway session",
				zap.String("gateway_session_ref", outcome.SessionRef),
				zap.String("gateway_txn_id", outcome.TransactionID))
			return nil, gateway.ErrVerificationFailed
		}
		return nil, err
	}

	if !outcome.Success {
		o.failOrder(ctx, ord, outcome.TransactionID, outcome.PaymentMethod, "gateway reported payment failure")
		return &VerifyResult{OrderID: ord.ID, Success: false}, nil
	}

	record := &domain.BillingRecord{
		ID:                uuid.New(),
		OrderID:           ord.ID,
		GatewayTxnID:      outcome.TransactionID,
		GatewaySessionRef: outcome.SessionRef,
		Amount:            outcome.Amount,
		Currency:          ord.Currency,
		Status:            domain.BillingStatusSuccess,
		PaymentMethod:     outcome.PaymentMethod,
		CustomerEmail:     ord.Shipping.CustomerEmail,
		CustomerName:      ord.Shipping.CustomerName,
		CreatedAt:         time.Now(),
	}

	err = o.repo.MarkOrderPaid(ctx, ord.ID, record)
	switch {
	case errors.Is(err, ErrTxnAlreadyRecorded):
		// Lost the race against a concurrent duplicate delivery.
		return &VerifyResult{OrderID: ord.ID, Success: true}, nil
	case errors.Is(err, ErrReplayOrMismatch):
		o.logger.Error("replayed or mismatched callback, order state unchanged",
			zap.String("order_id", ord.ID.String()),
			zap.String("gateway_txn_id", outcome.TransactionID),
			zap.Int64("claimed_amount", outcome.Amount),
			zap.Int64("order_amount", ord.TotalAmount),
			zap.String("order_status", ord.Status.String()))
		return nil, ErrReplayOrMismatch
	case err != nil:
		return nil, err
	}

	// The PAID transition, billing record and outbox event committed
	// together; the poller re-clears the cart if this clear is lost.
	if clearErr := o.carts.Clear(ctx, ord.SessionID); clearErr != nil {
		o.logger.Error("cart clear after payment failed, poller will retry",
			zap.String("order_id", ord.ID.String()),
			zap.String("session_id", ord.SessionID),
			zap.Error(clearErr))
	}

	o.logger.Info("payment verified, order paid",
		zap.String("order_id", ord.ID.String()),
		zap.String("gateway_txn_id", outcome.TransactionID),
		zap.Int64("amount", outcome.Amount))

	return &VerifyResult{OrderID: ord.ID, Success: true}, nil
}

// GetOrder is a read-through for the order lookup endpoint.
func (o *Orchestrator) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return o.repo.GetOrderByID(ctx, orderID)
}

// failOrderForCallback marks an order FAILED when a signature check fails but
// the callback still names a session we issued. The cart stays intact so the
// shopper can retry with a fresh order.
func (o *Orchestrator) failOrderForCallback(ctx context.Context, callback *gateway.Callback) {
	if callback == nil || callback.SessionRef == "" {
		return
	}
	ord, err := o.repo.GetOrderByGatewayRef(ctx, callback.SessionRef)
	if err != nil {
		return
	}
	o.failOrder(ctx, ord, callback.TransactionID, callback.PaymentMethod, "signature verification failed")
}

func (o *Orchestrator) failOrder(ctx context.Context, ord *domain.Order, txnID, method, reason string) {
	if err := o.repo.MarkOrderFailed(ctx, ord.ID, reason); err != nil {
		o.logger.Error("failed to mark order failed",
			zap.String("order_id", ord.ID.String()), zap.Error(err))
	}

	// Without a transaction id there is no dedupe key, so no billing row.
	if txnID == "" {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	record := &domain.BillingRecord{
		ID:                uuid.New(),
		OrderID:           ord.ID,
		GatewayTxnID:      txnID,
		GatewaySessionRef: ord.GatewaySessionRef,
		Amount:            ord.TotalAmount,
		Currency:          ord.Currency,
		Status:            domain.BillingStatusFailed,
		PaymentMethod:     method,
		CustomerEmail:     ord.Shipping.CustomerEmail,
		CustomerName:      ord.Shipping.CustomerName,
		CreatedAt:         time.Now(),
	}
	if err := o.ledger.Append(ctx, record); err != nil {
		o.logger.Error("failed to append failure billing record",
			zap.String("order_id", ord.ID.String()),
			zap.String("gateway_txn_id", txnID),
			zap.Error(err))
	}
}

func refOf(c *gateway.Callback) string {
	if c == nil {
		return ""
	}
	return c.SessionRef
}

func txnOf(c *gateway.Callback) string {
	if c == nil {
		return ""
	}
	return c.TransactionID
}
