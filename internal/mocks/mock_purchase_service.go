package mocks

import (
	"context"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// MockPurchaseService implements domain.PurchaseService interface for testing
type MockPurchaseService struct {
	ListPackagesFunc         func(ctx context.Context) ([]*domain.CreditPackage, error)
	CreatePackageFunc        func(ctx context.Context, pkg *domain.CreditPackage) error
	DeactivatePackageFunc    func(ctx context.Context, id uint) error
	InitiateFunc             func(ctx context.Context, userID, packageID uint) (*domain.Checkout, error)
	VerifyFunc               func(ctx context.Context, reference string) (*domain.Transaction, error)
	VerifyGatewayRefFunc     func(ctx context.Context, gatewayRef string) (*domain.Transaction, error)
	ResolveCheckoutTokenFunc func(ctx context.Context, token string) (string, error)
	HistoryFunc              func(ctx context.Context, userID uint, limit, offset int) ([]*domain.Transaction, error)
	ReconcilePendingFunc     func(ctx context.Context) (int, error)
}

func NewMockPurchaseService() *MockPurchaseService {
	return &MockPurchaseService{}
}

func (m *MockPurchaseService) ListPackages(ctx context.Context) ([]*domain.CreditPackage, error) {
	if m.ListPackagesFunc != nil {
		return m.ListPackagesFunc(ctx)
	}
	return []*domain.CreditPackage{}, nil
}

func (m *MockPurchaseService) CreatePackage(ctx context.Context, pkg *domain.CreditPackage) error {
	if m.CreatePackageFunc != nil {
		return m.CreatePackageFunc(ctx, pkg)
	}
	pkg.ID = 1
	pkg.Active = true
	return nil
}

func (m *MockPurchaseService) DeactivatePackage(ctx context.Context, id uint) error {
	if m.DeactivatePackageFunc != nil {
		return m.DeactivatePackageFunc(ctx, id)
	}
	return nil
}

func (m *MockPurchaseService) Initiate(ctx context.Context, userID, packageID uint) (*domain.Checkout, error) {
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, userID, packageID)
	}
	return &domain.Checkout{
		Reference:     "ref-1",
		PaymentURL:    "https://pay.example/ref-1",
		CheckoutToken: "token-1",
		Status:        domain.TransactionPending,
	}, nil
}

func (m *MockPurchaseService) Verify(ctx context.Context, reference string) (*domain.Transaction, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, reference)
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockPurchaseService) VerifyGatewayRef(ctx context.Context, gatewayRef string) (*domain.Transaction, error) {
	if m.VerifyGatewayRefFunc != nil {
		return m.VerifyGatewayRefFunc(ctx, gatewayRef)
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockPurchaseService) ResolveCheckoutToken(ctx context.Context, token string) (string, error) {
	if m.ResolveCheckoutTokenFunc != nil {
		return m.ResolveCheckoutTokenFunc(ctx, token)
	}
	return "", domain.ErrCheckoutNotFound
}

func (m *MockPurchaseService) History(ctx context.Context, userID uint, limit, offset int) ([]*domain.Transaction, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit, offset)
	}
	return []*domain.Transaction{}, nil
}

func (m *MockPurchaseService) ReconcilePending(ctx context.Context) (int, error) {
	if m.ReconcilePendingFunc != nil {
		return m.ReconcilePendingFunc(ctx)
	}
	return 0, nil
}

// Compile-time interface compliance verification
var _ domain.PurchaseService = (*MockPurchaseService)(nil)
