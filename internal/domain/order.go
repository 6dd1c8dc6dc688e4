package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "CREATED"
	OrderStatusPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusFailed         OrderStatus = "FAILED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo encodes the order state machine:
// CREATED -> PAYMENT_PENDING -> {PAID | FAILED}.
// No transition leaves a terminal state.
func CanTransitionTo(from, to OrderStatus) bool {
	switch from {
	case OrderStatusCreated:
		return to == OrderStatusPaymentPending || to == OrderStatusFailed
	case OrderStatusPaymentPending:
		return to == OrderStatusPaid || to == OrderStatusFailed
	default:
		return false
	}
}

// ShippingInfo holds the customer contact and delivery fields collected at
// checkout. All fields are required.
type ShippingInfo struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Address       string `json:"shipping_address"`
	City          string `json:"city"`
	Pincode       string `json:"pincode"`
}

type OrderItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int32  `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
}

// Order is created once per checkout attempt from a cart snapshot.
// TotalAmount is fixed at creation and authoritative for the payment amount.
type Order struct {
	ID                uuid.UUID    `json:"order_id"`
	SessionID         string       `json:"session_id"`
	Shipping          ShippingInfo `json:"shipping"`
	Items             []OrderItem  `json:"items"`
	TotalAmount       int64        `json:"total_amount"`
	Currency          string       `json:"currency"`
	Status            OrderStatus  `json:"status"`
	GatewaySessionRef string       `json:"gateway_session_ref,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NewOrderFromSnapshot copies the snapshot items; nothing is re-read from the
// catalog after this point.
func NewOrderFromSnapshot(snapshot *CartSnapshot, shipping ShippingInfo) *Order {
	items := make([]OrderItem, 0, len(snapshot.Items))
	for _, it := range snapshot.Items {
		items = append(items, OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.Subtotal,
		})
	}

	now := time.Now()
	return &Order{
		ID:          uuid.New(),
		SessionID:   snapshot.SessionID,
		Shipping:    shipping,
		Items:       items,
		TotalAmount: snapshot.TotalAmount,
		Currency:    snapshot.Currency,
		Status:      OrderStatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ItemsTotal recomputes the sum of line totals. Must always equal TotalAmount.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.LineTotal
	}
	return total
}
