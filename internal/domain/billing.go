package domain

import (
	"time"

	"github.com/google/uuid"
)

type BillingStatus string

const (
	BillingStatusSuccess BillingStatus = "SUCCESS"
	BillingStatusFailed  BillingStatus = "FAILED"
)

// BillingRecord is one row per gateway verification outcome. Append-only,
// deduped by the gateway transaction id.
type BillingRecord struct {
	ID                uuid.UUID     `json:"transaction_id"`
	OrderID           uuid.UUID     `json:"order_id"`
	GatewayTxnID      string        `json:"gateway_txn_id"`
	GatewaySessionRef string        `json:"gateway_session_ref"`
	Amount            int64         `json:"amount"`
	Currency          string        `json:"currency"`
	Status            BillingStatus `json:"status"`
	PaymentMethod     string        `json:"payment_method"`
	CustomerEmail     string        `json:"customer_email"`
	CustomerName      string        `json:"customer_name"`
	CreatedAt         time.Time     `json:"created_at"`
}
