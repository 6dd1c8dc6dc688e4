package gateway

import (
	"context"
	"errors"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidAmount      = errors.New("payment amount must be greater than zero")
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Callback is the payload the gateway delivers after a payment attempt.
// It is untrusted input until Verify accepts it.
type Callback struct {
	SessionRef    string `json:"gateway_session_ref"`
	TransactionID string `json:"gateway_txn_id"`
	Amount        int64  `json:"amount"`
	Success       bool   `json:"success"`
	PaymentMethod string `json:"payment_method"`
	Signature     string `json:"signature"`
}

// VerifiedOutcome is a callback that passed signature verification.
type VerifiedOutcome struct {
	SessionRef    string
	TransactionID string
	Amount        int64
	Success       bool
	PaymentMethod string
}

// Adapter abstracts the external payment processor: session creation and
// authenticity verification of a completion callback.
type Adapter interface {
	// CreateSession opens a payment session for the exact order amount.
	// The adapter never rounds or recomputes.
	CreateSession(ctx context.Context, orderID string, amount int64, currency string) (string, error)

	// Verify validates that the callback was produced by the gateway using
	// the shared secret. Fails closed: any signature mismatch or malformed
	// payload yields ErrVerificationFailed, never a partial success.
	Verify(callback *Callback) (*VerifiedOutcome, error)
}
