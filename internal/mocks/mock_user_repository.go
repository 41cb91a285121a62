package mocks

import (
	"context"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc        func(ctx context.Context, user *domain.User) error
	FindByIDFunc      func(ctx context.Context, id uint) (*domain.User, error)
	FindByPhoneFunc   func(ctx context.Context, phone string) (*domain.User, error)
	UpdateFunc        func(ctx context.Context, user *domain.User) error
	ListAdminsFunc    func(ctx context.Context) ([]*domain.User, error)
	ListActiveIDsFunc func(ctx context.Context) ([]uint, error)
	DebitCreditFunc   func(ctx context.Context, userID uint, category domain.Category) (bool, error)
	AddCreditsFunc    func(ctx context.Context, userID uint, category domain.Category, amount int) error
	GetBalancesFunc   func(ctx context.Context, userID uint) (domain.Balances, error)
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	// Default behavior: assign an ID
	if user.ID == 0 {
		user.ID = 1
	}
	return nil
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByPhone finds a user by phone number
func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return nil, domain.ErrUserNotFound
}

// Update updates an existing user
func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	if m.ListAdminsFunc != nil {
		return m.ListAdminsFunc(ctx)
	}
	return nil, nil
}

func (m *MockUserRepository) ListActiveIDs(ctx context.Context) ([]uint, error) {
	if m.ListActiveIDsFunc != nil {
		return m.ListActiveIDsFunc(ctx)
	}
	return nil, nil
}

func (m *MockUserRepository) DebitCredit(ctx context.Context, userID uint, category domain.Category) (bool, error) {
	if m.DebitCreditFunc != nil {
		return m.DebitCreditFunc(ctx, userID, category)
	}
	return false, nil
}

func (m *MockUserRepository) AddCredits(ctx context.Context, userID uint, category domain.Category, amount int) error {
	if m.AddCreditsFunc != nil {
		return m.AddCreditsFunc(ctx, userID, category, amount)
	}
	return nil
}

func (m *MockUserRepository) GetBalances(ctx context.Context, userID uint) (domain.Balances, error) {
	if m.GetBalancesFunc != nil {
		return m.GetBalancesFunc(ctx, userID)
	}
	return domain.Balances{}, nil
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)
