package mocks

import (
	"context"
	"sync"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

// MockNotificationService implements domain.NotificationService and records what it was asked to send
type MockNotificationService struct {
	NotifyFunc       func(ctx context.Context, n *domain.Notification) error
	BroadcastFunc    func(ctx context.Context, title, message string) (int, error)
	ListFunc         func(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*domain.Notification, error)
	UnreadCountFunc  func(ctx context.Context, userID uint) (int64, error)
	MarkReadFunc     func(ctx context.Context, userID, id uint) error
	MarkAllReadFunc  func(ctx context.Context, userID uint) (int64, error)
	DeleteFunc       func(ctx context.Context, userID, id uint) error
	NotifyAdminsFunc func(ctx context.Context, listing *domain.Listing)

	mu         sync.Mutex
	notified   []*domain.Notification
	dispatched []*domain.Notification
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) Notify(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	m.notified = append(m.notified, n)
	m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, n)
	}
	return nil
}

func (m *MockNotificationService) Dispatch(ctx context.Context, n *domain.Notification) {
	m.mu.Lock()
	m.dispatched = append(m.dispatched, n)
	m.mu.Unlock()
}

func (m *MockNotificationService) NotifyAdmins(ctx context.Context, listing *domain.Listing) {
	if m.NotifyAdminsFunc != nil {
		m.NotifyAdminsFunc(ctx, listing)
	}
}

func (m *MockNotificationService) Broadcast(ctx context.Context, title, message string) (int, error) {
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, title, message)
	}
	return 0, nil
}

func (m *MockNotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, unreadOnly, limit, offset)
	}
	return []*domain.Notification{}, nil
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if m.UnreadCountFunc != nil {
		return m.UnreadCountFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockNotificationService) Delete(ctx context.Context, userID, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

// Notified returns the notifications passed to Notify
func (m *MockNotificationService) Notified() []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Notification(nil), m.notified...)
}

// Dispatched returns the notifications passed to Dispatch
func (m *MockNotificationService) Dispatched() []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Notification(nil), m.dispatched...)
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)
