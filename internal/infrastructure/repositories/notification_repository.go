package repositories

import (
	"context"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"gorm.io/gorm"
)

// NotificationRepositoryImpl implements domain.NotificationRepository using GORM
type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *domain.Notification) error {
	row := &DBNotification{
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		ListingID: n.ListingID,
	}
	if err := conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	n.ID = row.ID
	n.CreatedAt = row.CreatedAt
	return nil
}

// ListByUser returns the user's notifications, newest first
func (r *NotificationRepositoryImpl) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*domain.Notification, error) {
	q := conn(ctx, r.db).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var rows []DBNotification
	if err := q.Order("created_at DESC").Order("id DESC").Scopes(paginate(limit, offset)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, notificationToDomain(&rows[i]))
	}
	return out, nil
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&DBNotification{}).Where("user_id = ? AND read = ?", userID, false).Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) CountByListingAndType(ctx context.Context, listingID string, t domain.NotificationType) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&DBNotification{}).Where("listing_id = ? AND type = ?", listingID, string(t)).Count(&count).Error
	return count, err
}

// MarkRead flags one notification as read. Other users' notifications are reported as not found.
func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id, userID uint) error {
	res := conn(ctx, r.db).Model(&DBNotification{}).Where("id = ? AND user_id = ?", id, userID).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := conn(ctx, r.db).Model(&DBNotification{}).Where("user_id = ? AND read = ?", userID, false).Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepositoryImpl) Delete(ctx context.Context, id, userID uint) error {
	res := conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&DBNotification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func notificationToDomain(row *DBNotification) *domain.Notification {
	return &domain.Notification{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      domain.NotificationType(row.Type),
		Title:     row.Title,
		Message:   row.Message,
		Read:      row.Read,
		ListingID: row.ListingID,
		CreatedAt: row.CreatedAt,
	}
}
