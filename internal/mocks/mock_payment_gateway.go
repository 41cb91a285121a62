package mocks

import (
	"context"
	"sync/atomic"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// MockPaymentGateway implements domain.PaymentGateway interface for testing
type MockPaymentGateway struct {
	CreateOrderFunc func(ctx context.Context, req domain.GatewayOrderRequest) (*domain.GatewayOrder, error)
	CheckOrderFunc  func(ctx context.Context, ref string) (domain.GatewayOrderState, string, error)

	CreateCalls atomic.Int32
	CheckCalls  atomic.Int32
}

// NewMockPaymentGateway creates a gateway that accepts every order and reports it pending
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, req domain.GatewayOrderRequest) (*domain.GatewayOrder, error) {
	m.CreateCalls.Add(1)
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return &domain.GatewayOrder{
		Ref:        "ORD-" + req.CartID,
		PaymentURL: "https://pay.example/" + req.CartID,
	}, nil
}

func (m *MockPaymentGateway) CheckOrder(ctx context.Context, ref string) (domain.GatewayOrderState, string, error) {
	m.CheckCalls.Add(1)
	if m.CheckOrderFunc != nil {
		return m.CheckOrderFunc(ctx, ref)
	}
	return domain.GatewayPending, "Pending", nil
}

// Compile-time interface compliance verification
var _ domain.PaymentGateway = (*MockPaymentGateway)(nil)
