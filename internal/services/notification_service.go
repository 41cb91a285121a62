package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
	"go.uber.org/zap"
)

// NotificationServiceImpl stores in-app notifications and forwards pushable ones by SMS
type NotificationServiceImpl struct {
	tx            domain.TxManager
	notifications domain.NotificationRepository
	users         domain.UserRepository
	sms           domain.SMSSender
	metrics       *metrics.Metrics
	log           *zap.Logger

	wg sync.WaitGroup
}

// NewNotificationService creates a notification service
func NewNotificationService(
	tx domain.TxManager,
	notifications domain.NotificationRepository,
	users domain.UserRepository,
	sms domain.SMSSender,
	m *metrics.Metrics,
	log *zap.Logger,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		tx:            tx,
		notifications: notifications,
		users:         users,
		sms:           sms,
		metrics:       m,
		log:           log,
	}
}

// Notify implements domain.NotificationService
func (s *NotificationServiceImpl) Notify(ctx context.Context, n *domain.Notification) error {
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	s.metrics.Notification(string(n.Type), "in_app")
	s.Dispatch(ctx, n)
	return nil
}

// Dispatch implements domain.NotificationService. Failures are logged and dropped.
func (s *NotificationServiceImpl) Dispatch(ctx context.Context, n *domain.Notification) {
	if !n.Type.Pushable() {
		return
	}
	user, err := s.users.FindByID(ctx, n.UserID)
	if err != nil {
		s.log.Warn("push skipped, recipient lookup failed", zap.Uint("user_id", n.UserID), zap.Error(err))
		return
	}
	s.sendSMS(user, n)
}

func (s *NotificationServiceImpl) sendSMS(user *domain.User, n *domain.Notification) {
	if user.Phone == "" || !user.IsActive {
		return
	}
	if err := s.sms.SendSMS(user.Phone, smsBody(n)); err != nil {
		s.log.Warn("sms dispatch failed",
			zap.Uint("user_id", user.ID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		s.metrics.Notification(string(n.Type), "sms_failed")
		return
	}
	s.metrics.Notification(string(n.Type), "sms")
}

func smsBody(n *domain.Notification) string {
	if n.Title == "" {
		return n.Message
	}
	return n.Title + ": " + n.Message
}

// NotifyAdmins records a review notice for every admin and texts them. Errors are only logged.
func (s *NotificationServiceImpl) NotifyAdmins(ctx context.Context, listing *domain.Listing) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.log.Error("list admins for review notice", zap.String("listing_id", listing.ID), zap.Error(err))
		return
	}
	for _, admin := range admins {
		n := domain.NewPendingListingNotification(admin.ID, listing)
		if err := s.notifications.Create(ctx, n); err != nil {
			s.log.Warn("store admin notice", zap.Uint("admin_id", admin.ID), zap.Error(err))
			continue
		}
		s.metrics.Notification(string(n.Type), "in_app")
		s.sendSMS(admin, n)
	}
}

// Broadcast stores one notification per active user, then pushes them in the background
func (s *NotificationServiceImpl) Broadcast(ctx context.Context, title, message string) (int, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	verr := &domain.ValidationError{}
	if title == "" {
		verr.Add("title", "is required")
	}
	if message == "" {
		verr.Add("message", "is required")
	}
	if !verr.Empty() {
		return 0, verr
	}

	var sent []*domain.Notification
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ids, err := s.users.ListActiveIDs(ctx)
		if err != nil {
			return err
		}
		sent = make([]*domain.Notification, 0, len(ids))
		for _, id := range ids {
			n := &domain.Notification{UserID: id, Type: domain.NotificationBroadcast, Title: title, Message: message}
			if err := s.notifications.Create(ctx, n); err != nil {
				return err
			}
			sent = append(sent, n)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("broadcast: %w", err)
	}

	s.log.Info("broadcast stored", zap.Int("recipients", len(sent)))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pushCtx := context.WithoutCancel(ctx)
		for _, n := range sent {
			s.Dispatch(pushCtx, n)
		}
	}()
	return len(sent), nil
}

// Wait blocks until background pushes have finished
func (s *NotificationServiceImpl) Wait() {
	s.wg.Wait()
}

func (s *NotificationServiceImpl) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	limit, offset = normalizePage(limit, offset)
	return s.notifications.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationServiceImpl) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, id uint) error {
	return s.notifications.MarkRead(ctx, id, userID)
}

func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationServiceImpl) Delete(ctx context.Context, userID, id uint) error {
	return s.notifications.Delete(ctx, id, userID)
}

var _ domain.NotificationService = (*NotificationServiceImpl)(nil)
