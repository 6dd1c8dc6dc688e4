package order

import (
	"context"
	"sync"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/VedantBankewar/payment-gateway/internal/gateway"
	"github.com/VedantBankewar/payment-gateway/internal/ledger"
	"github.com/google/uuid"
)

// mockBackend implements Repository and BillingLedger over in-memory maps,
// mirroring the database invariants: one non-terminal order per session and
// one billing record per gateway transaction.
type mockBackend struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*domain.Order
	billing map[string]*domain.BillingRecord
	events  []*OutboxEvent

	createErr  error
	pendingErr error
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		orders:  make(map[uuid.UUID]*domain.Order),
		billing: make(map[string]*domain.BillingRecord),
	}
}

func (m *mockBackend) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.orders {
		if existing.SessionID == order.SessionID && !existing.Status.IsTerminal() {
			return ErrCheckoutInProgress
		}
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockBackend) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockBackend) GetOrderByGatewayRef(_ context.Context, sessionRef string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.GatewaySessionRef == sessionRef {
			copied := *order
			return &copied, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *mockBackend) SetPaymentPending(_ context.Context, orderID uuid.UUID, sessionRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingErr != nil {
		return m.pendingErr
	}
	order, ok := m.orders[orderID]
	if !ok || order.Status != domain.OrderStatusCreated {
		return ErrOrderNotFound
	}
	order.Status = domain.OrderStatusPaymentPending
	order.GatewaySessionRef = sessionRef
	return nil
}

func (m *mockBackend) MarkOrderFailed(_ context.Context, orderID uuid.UUID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil
	}
	if !order.Status.IsTerminal() {
		order.Status = domain.OrderStatusFailed
	}
	return nil
}

func (m *mockBackend) MarkOrderPaid(_ context.Context, orderID uuid.UUID, record *domain.BillingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Status != domain.OrderStatusPaymentPending {
		if _, exists := m.billing[record.GatewayTxnID]; exists {
			return ErrTxnAlreadyRecorded
		}
		return ErrReplayOrMismatch
	}
	if record.Amount != order.TotalAmount {
		return ErrReplayOrMismatch
	}
	if _, exists := m.billing[record.GatewayTxnID]; exists {
		return ErrTxnAlreadyRecorded
	}
	order.Status = domain.OrderStatusPaid
	m.billing[record.GatewayTxnID] = record
	m.events = append(m.events, &OutboxEvent{
		ID:          int64(len(m.events) + 1),
		AggregateID: orderID.String(),
		EventType:   EventPaymentSucceeded,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (m *mockBackend) GetUnprocessedEvents(_ context.Context, _ int) ([]*OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OutboxEvent(nil), m.events...), nil
}

func (m *mockBackend) MarkEventAsProcessed(_ context.Context, _ int64) error {
	return nil
}

func (m *mockBackend) Close() error { return nil }

// BillingLedger side.

func (m *mockBackend) Append(_ context.Context, record *domain.BillingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.billing[record.GatewayTxnID]; exists {
		return nil
	}
	m.billing[record.GatewayTxnID] = record
	return nil
}

func (m *mockBackend) BillingByTxnID(_ context.Context, txnID string) (*domain.BillingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.billing[txnID]
	if !ok {
		return nil, ledger.ErrRecordNotFound
	}
	return record, nil
}

func (m *mockBackend) billingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.billing)
}

func (m *mockBackend) orderStatus(id uuid.UUID) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

// mockCartStore serves a fixed snapshot and records clears.
type mockCartStore struct {
	mu       sync.Mutex
	snapshot *domain.CartSnapshot
	snapErr  error
	clearErr error
	cleared  []string
}

func (m *mockCartStore) Snapshot(_ context.Context, sessionID, currency string) (*domain.CartSnapshot, error) {
	if m.snapErr != nil {
		return nil, m.snapErr
	}
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	return &domain.CartSnapshot{SessionID: sessionID, Currency: currency}, nil
}

func (m *mockCartStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = append(m.cleared, sessionID)
	return nil
}

func (m *mockCartStore) clearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cleared)
}

// mockGateway implements gateway.Adapter with canned responses.
type mockGateway struct {
	sessionRef string
	createErr  error

	outcome   *gateway.VerifiedOutcome
	verifyErr error

	createCalls int
}

func (m *mockGateway) CreateSession(_ context.Context, _ string, _ int64, _ string) (string, error) {
	m.createCalls++
	if m.createErr != nil {
		return "", m.createErr
	}
	return m.sessionRef, nil
}

func (m *mockGateway) Verify(_ *gateway.Callback) (*gateway.VerifiedOutcome, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.outcome, nil
}
