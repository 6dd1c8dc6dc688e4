package order

import (
	"context"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/google/uuid"
)

// OutboxEvent is a pending side effect recorded in the same transaction as
// the state change that produced it.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

const EventPaymentSucceeded = "payment.succeeded"

// PaymentSucceededPayload is the outbox payload for a PAID transition.
type PaymentSucceededPayload struct {
	OrderID      string    `json:"order_id"`
	SessionID    string    `json:"session_id"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	GatewayTxnID string    `json:"gateway_txn_id"`
	PaidAt       time.Time `json:"paid_at"`
}

// Repository is the orchestrator's view of durable order state.
type Repository interface {
	// CreateOrder inserts a new order. A second non-terminal order for the
	// same session yields ErrCheckoutInProgress.
	CreateOrder(ctx context.Context, order *domain.Order) error

	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByGatewayRef(ctx context.Context, sessionRef string) (*domain.Order, error)

	// SetPaymentPending stores the gateway session ref and moves the order
	// from CREATED to PAYMENT_PENDING.
	SetPaymentPending(ctx context.Context, orderID uuid.UUID, sessionRef string) error

	// MarkOrderFailed transitions a non-terminal order to FAILED. Calling it
	// on a terminal order is a no-op; terminal states are never left.
	MarkOrderFailed(ctx context.Context, orderID uuid.UUID, reason string) error

	// MarkOrderPaid applies the success path as one transaction: re-checks
	// status and amount under a row lock, updates the order to PAID, appends
	// the billing record and the outbox event. Returns ErrReplayOrMismatch
	// on a stale or mismatched callback and ErrTxnAlreadyRecorded when the
	// gateway transaction was already applied.
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID, record *domain.BillingRecord) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error

	Close() error
}
