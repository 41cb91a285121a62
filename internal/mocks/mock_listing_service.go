package mocks

import (
	"context"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// MockListingService implements domain.ListingService interface for testing.
// Unset functions return ErrListingNotFound.
type MockListingService struct {
	CreateFunc        func(ctx context.Context, ownerID uint, draft domain.ListingDraft) (*domain.Listing, error)
	GetFunc           func(ctx context.Context, id string, viewer *domain.User) (*domain.Listing, error)
	FeedFunc          func(ctx context.Context, filter domain.FeedFilter) ([]*domain.Listing, error)
	ListMineFunc      func(ctx context.Context, ownerID uint, limit, offset int) ([]*domain.Listing, error)
	ListPendingFunc   func(ctx context.Context, limit, offset int) ([]*domain.Listing, error)
	EditFunc          func(ctx context.Context, ownerID uint, id string, draft domain.ListingDraft) (*domain.Listing, error)
	ApproveFunc       func(ctx context.Context, id string) (*domain.Listing, error)
	RejectFunc        func(ctx context.Context, id, reason string) (*domain.Listing, error)
	RenewFunc         func(ctx context.Context, ownerID uint, id string) (*domain.Listing, error)
	MarkSoldFunc      func(ctx context.Context, ownerID uint, id string) (*domain.Listing, error)
	DeleteByOwnerFunc func(ctx context.Context, ownerID uint, id string) error
	DeleteByAdminFunc func(ctx context.Context, id, reason string) error
}

func NewMockListingService() *MockListingService {
	return &MockListingService{}
}

func (m *MockListingService) Create(ctx context.Context, ownerID uint, draft domain.ListingDraft) (*domain.Listing, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, draft)
	}
	return &domain.Listing{ID: "listing-1", OwnerID: ownerID, Title: draft.Title, Category: draft.Category,
		SubCategory: draft.SubCategory, Images: draft.Images, Status: domain.StatusPending}, nil
}

func (m *MockListingService) Get(ctx context.Context, id string, viewer *domain.User) (*domain.Listing, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id, viewer)
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingService) Feed(ctx context.Context, filter domain.FeedFilter) ([]*domain.Listing, error) {
	if m.FeedFunc != nil {
		return m.FeedFunc(ctx, filter)
	}
	return []*domain.Listing{}, nil
}

func (m *MockListingService) ListMine(ctx context.Context, ownerID uint, limit, offset int) ([]*domain.Listing, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, ownerID, limit, offset)
	}
	return []*domain.Listing{}, nil
}

func (m *MockListingService) ListPending(ctx context.Context, limit, offset int) ([]*domain.Listing, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit, offset)
	}
	return []*domain.Listing{}, nil
}

func (m *MockListingService) Edit(ctx context.Context, ownerID uint, id string, draft domain.ListingDraft) (*domain.Listing, error) {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, ownerID, id, draft)
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingService) Approve(ctx context.Context, id string) (*domain.Listing, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id)
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingService) Reject(ctx context.Context, id, reason string) (*domain.Listing, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, id, reason)
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingService) Renew(ctx context.Context, ownerID uint, id string) (*domain.Listing, error) {
	if m.RenewFunc != nil {
		return m.RenewFunc(ctx, ownerID, id)
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingService) MarkSold(ctx context.Context, ownerID uint, id string) (*domain.Listing, error) {
	if m.MarkSoldFunc != nil {
		return m.MarkSoldFunc(ctx, ownerID, id)
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingService) DeleteByOwner(ctx context.Context, ownerID uint, id string) error {
	if m.DeleteByOwnerFunc != nil {
		return m.DeleteByOwnerFunc(ctx, ownerID, id)
	}
	return domain.ErrListingNotFound
}

func (m *MockListingService) DeleteByAdmin(ctx context.Context, id, reason string) error {
	if m.DeleteByAdminFunc != nil {
		return m.DeleteByAdminFunc(ctx, id, reason)
	}
	return domain.ErrListingNotFound
}

// Compile-time interface compliance verification
var _ domain.ListingService = (*MockListingService)(nil)
