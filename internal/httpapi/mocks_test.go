package httpapi

import (
	"context"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/VedantBankewar/payment-gateway/internal/gateway"
	"github.com/VedantBankewar/payment-gateway/internal/order"
	"github.com/google/uuid"
)

// mockCartService implements CartService with canned responses.
type mockCartService struct {
	cart *domain.Cart
	err  error

	addCalls    int
	setCalls    int
	removeCalls int
	lastProduct int64
	lastQty     int32
}

func (m *mockCartService) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart != nil {
		return m.cart, nil
	}
	return &domain.Cart{SessionID: sessionID}, nil
}

func (m *mockCartService) Add(_ context.Context, _ string, productID int64, quantity int32) error {
	m.addCalls++
	m.lastProduct = productID
	m.lastQty = quantity
	return m.err
}

func (m *mockCartService) SetQuantity(_ context.Context, _ string, productID int64, quantity int32) error {
	m.setCalls++
	m.lastProduct = productID
	m.lastQty = quantity
	return m.err
}

func (m *mockCartService) Remove(_ context.Context, _ string, productID int64) error {
	m.removeCalls++
	m.lastProduct = productID
	return m.err
}

// mockOrchestrator implements Orchestrator with canned responses.
type mockOrchestrator struct {
	createResult *order.CreateOrderResult
	createErr    error

	verifyResult *order.VerifyResult
	verifyErr    error

	order    *domain.Order
	orderErr error

	lastShipping domain.ShippingInfo
	lastCallback *gateway.Callback
}

func (m *mockOrchestrator) CreateOrder(_ context.Context, _ string, shipping domain.ShippingInfo) (*order.CreateOrderResult, error) {
	m.lastShipping = shipping
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResult, nil
}

func (m *mockOrchestrator) VerifyPayment(_ context.Context, callback *gateway.Callback) (*order.VerifyResult, error) {
	m.lastCallback = callback
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.verifyResult, nil
}

func (m *mockOrchestrator) GetOrder(_ context.Context, _ uuid.UUID) (*domain.Order, error) {
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	return m.order, nil
}
