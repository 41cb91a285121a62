package mocks

import (
	"context"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// MockLedgerService implements domain.LedgerService interface for testing
type MockLedgerService struct {
	CreditsEnabledFunc    func(ctx context.Context) (bool, error)
	SetCreditsEnabledFunc func(ctx context.Context, enabled bool) error
	UseCreditFunc         func(ctx context.Context, userID uint, category domain.Category) (bool, error)
	RefundCreditFunc      func(ctx context.Context, userID uint, category domain.Category) error
	AddCreditsFunc        func(ctx context.Context, userID uint, category domain.Category, amount int) error
	GetBalancesFunc       func(ctx context.Context, userID uint) (domain.Balances, error)
	GrantCreditsFunc      func(ctx context.Context, adminID, userID uint, category domain.Category, amount int) (*domain.Transaction, error)
}

func NewMockLedgerService() *MockLedgerService {
	return &MockLedgerService{}
}

func (m *MockLedgerService) CreditsEnabled(ctx context.Context) (bool, error) {
	if m.CreditsEnabledFunc != nil {
		return m.CreditsEnabledFunc(ctx)
	}
	return true, nil
}

func (m *MockLedgerService) SetCreditsEnabled(ctx context.Context, enabled bool) error {
	if m.SetCreditsEnabledFunc != nil {
		return m.SetCreditsEnabledFunc(ctx, enabled)
	}
	return nil
}

func (m *MockLedgerService) UseCredit(ctx context.Context, userID uint, category domain.Category) (bool, error) {
	if m.UseCreditFunc != nil {
		return m.UseCreditFunc(ctx, userID, category)
	}
	return true, nil
}

func (m *MockLedgerService) RefundCredit(ctx context.Context, userID uint, category domain.Category) error {
	if m.RefundCreditFunc != nil {
		return m.RefundCreditFunc(ctx, userID, category)
	}
	return nil
}

func (m *MockLedgerService) AddCredits(ctx context.Context, userID uint, category domain.Category, amount int) error {
	if m.AddCreditsFunc != nil {
		return m.AddCreditsFunc(ctx, userID, category, amount)
	}
	return nil
}

func (m *MockLedgerService) GetBalances(ctx context.Context, userID uint) (domain.Balances, error) {
	if m.GetBalancesFunc != nil {
		return m.GetBalancesFunc(ctx, userID)
	}
	return domain.Balances{}, nil
}

func (m *MockLedgerService) GrantCredits(ctx context.Context, adminID, userID uint, category domain.Category, amount int) (*domain.Transaction, error) {
	if m.GrantCreditsFunc != nil {
		return m.GrantCreditsFunc(ctx, adminID, userID, category, amount)
	}
	granted := adminID
	return &domain.Transaction{
		Reference: "grant-ref",
		UserID:    userID,
		Category:  category,
		Credits:   amount,
		Status:    domain.TransactionCompleted,
		Source:    domain.SourceGrant,
		GrantedBy: &granted,
	}, nil
}

// Compile-time interface compliance verification
var _ domain.LedgerService = (*MockLedgerService)(nil)
