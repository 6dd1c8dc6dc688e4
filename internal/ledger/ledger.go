package ledger

import (
	"context"
	"errors"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/google/uuid"
)

var ErrRecordNotFound = errors.New("billing record not found")

// Store is the append-only billing ledger plus the read-only history queries
// used by the order and billing history pages. Reads return empty slices for
// unknown emails, never errors.
type Store interface {
	Append(ctx context.Context, record *domain.BillingRecord) error
	BillingByTxnID(ctx context.Context, txnID string) (*domain.BillingRecord, error)
	BillingByEmail(ctx context.Context, email string) ([]*domain.BillingRecord, error)
	BillingByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.BillingRecord, error)
	OrdersByEmail(ctx context.Context, email string) ([]*domain.Order, error)
}
