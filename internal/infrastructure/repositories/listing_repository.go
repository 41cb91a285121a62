package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"gorm.io/gorm"
)

// ListingRepositoryImpl implements domain.ListingRepository using GORM
type ListingRepositoryImpl struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) domain.ListingRepository {
	return &ListingRepositoryImpl{db: db}
}

var editableColumns = []string{
	"title", "description", "category", "sub_category", "price", "year", "mileage", "images",
	"status", "rejection_reason", "rejected_at", "version", "updated_at",
}

// Create implements domain.ListingRepository
func (r *ListingRepositoryImpl) Create(ctx context.Context, listing *domain.Listing) error {
	if listing.Version == 0 {
		listing.Version = 1
	}
	row := listingToDB(listing)
	if err := conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	listing.CreatedAt = row.CreatedAt
	listing.UpdatedAt = row.UpdatedAt
	return nil
}

// FindByID implements domain.ListingRepository
func (r *ListingRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var row DBListing
	if err := conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return listingToDomain(&row), nil
}

// ListByOwner returns the owner's listings, newest first
func (r *ListingRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*domain.Listing, error) {
	var rows []DBListing
	err := conn(ctx, r.db).Where("owner_id = ?", ownerID).
		Order("created_at DESC").Scopes(paginate(limit, offset)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return listingsToDomain(rows), nil
}

// ListByStatus returns listings in status, oldest first so moderation works as a queue
func (r *ListingRepositoryImpl) ListByStatus(ctx context.Context, status domain.ListingStatus, limit, offset int) ([]*domain.Listing, error) {
	var rows []DBListing
	err := conn(ctx, r.db).Where("status = ?", string(status)).
		Order("created_at ASC").Scopes(paginate(limit, offset)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return listingsToDomain(rows), nil
}

// Approve implements domain.ListingRepository
func (r *ListingRepositoryImpl) Approve(ctx context.Context, id string, expiresAt time.Time) error {
	res := conn(ctx, r.db).Model(&DBListing{}).
		Where("id = ? AND status = ?", id, string(domain.StatusPending)).
		Updates(map[string]interface{}{
			"status":          string(domain.StatusApproved),
			"expires_at":      expiresAt,
			"expiry_notified": false,
			"version":         gorm.Expr("version + 1"),
		})
	return r.checkTransition(ctx, id, res)
}

// Reject implements domain.ListingRepository
func (r *ListingRepositoryImpl) Reject(ctx context.Context, id string, version int, reason string, rejectedAt time.Time) error {
	res := conn(ctx, r.db).Model(&DBListing{}).
		Where("id = ? AND status = ? AND version = ?", id, string(domain.StatusPending), version).
		Updates(map[string]interface{}{
			"status":           string(domain.StatusRejected),
			"rejection_reason": reason,
			"rejected_at":      rejectedAt,
			"credit_charged":   false,
			"version":          version + 1,
		})
	return r.checkTransition(ctx, id, res)
}

// Renew implements domain.ListingRepository
func (r *ListingRepositoryImpl) Renew(ctx context.Context, id string, version int, expiresAt time.Time) error {
	res := conn(ctx, r.db).Model(&DBListing{}).
		Where("id = ? AND status = ? AND version = ?", id, string(domain.StatusApproved), version).
		Updates(map[string]interface{}{
			"expires_at":      expiresAt,
			"expiry_notified": false,
			"version":         version + 1,
		})
	return r.checkTransition(ctx, id, res)
}

// Edit writes the editable fields of listing and moves it back to pending
func (r *ListingRepositoryImpl) Edit(ctx context.Context, listing *domain.Listing, version int) error {
	row := listingToDB(listing)
	row.Status = string(domain.StatusPending)
	row.RejectionReason = ""
	row.RejectedAt = nil
	row.Version = version + 1

	sources := make([]string, 0, 3)
	for _, s := range domain.SourceStates(domain.ActionEdit) {
		sources = append(sources, string(s))
	}

	res := conn(ctx, r.db).Model(&DBListing{}).
		Where("id = ? AND version = ? AND status IN ?", listing.ID, version, sources).
		Select(editableColumns).
		Updates(row)
	return r.checkTransition(ctx, listing.ID, res)
}

// MarkSold implements domain.ListingRepository
func (r *ListingRepositoryImpl) MarkSold(ctx context.Context, id string, version int) error {
	res := conn(ctx, r.db).Model(&DBListing{}).
		Where("id = ? AND status = ? AND version = ?", id, string(domain.StatusApproved), version).
		Updates(map[string]interface{}{
			"status":  string(domain.StatusSold),
			"version": version + 1,
		})
	return r.checkTransition(ctx, id, res)
}

// Delete implements domain.ListingRepository
func (r *ListingRepositoryImpl) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&DBListing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// DeleteRejectedBefore removes rejected listings whose rejection is older than cutoff
func (r *ListingRepositoryImpl) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := conn(ctx, r.db).
		Where("status = ? AND rejected_at IS NOT NULL AND rejected_at < ?", string(domain.StatusRejected), cutoff).
		Delete(&DBListing{})
	return res.RowsAffected, res.Error
}

// DeleteExpired removes approved listings whose expiry has passed
func (r *ListingRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", string(domain.StatusApproved), now).
		Delete(&DBListing{})
	return res.RowsAffected, res.Error
}

// ListExpiringUnflagged returns approved listings expiring in [now, until] that have not been warned
func (r *ListingRepositoryImpl) ListExpiringUnflagged(ctx context.Context, now, until time.Time) ([]*domain.Listing, error) {
	var rows []DBListing
	err := conn(ctx, r.db).
		Where("status = ? AND expiry_notified = ? AND expires_at >= ? AND expires_at <= ?",
			string(domain.StatusApproved), false, now, until).
		Order("expires_at ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return listingsToDomain(rows), nil
}

// MarkExpiryNotified implements domain.ListingRepository
func (r *ListingRepositoryImpl) MarkExpiryNotified(ctx context.Context, id string) (bool, error) {
	res := conn(ctx, r.db).Model(&DBListing{}).
		Where("id = ? AND status = ? AND expiry_notified = ?", id, string(domain.StatusApproved), false).
		UpdateColumn("expiry_notified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// checkTransition turns a zero-row conditional update into the matching domain error
func (r *ListingRepositoryImpl) checkTransition(ctx context.Context, id string, res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := conn(ctx, r.db).Model(&DBListing{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrListingNotFound
	}
	return domain.ErrInvalidTransition
}

func listingToDB(l *domain.Listing) *DBListing {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return &DBListing{
		ID:              l.ID,
		OwnerID:         l.OwnerID,
		Title:           l.Title,
		Description:     l.Description,
		Category:        string(l.Category),
		SubCategory:     l.SubCategory,
		Price:           l.Price,
		Year:            l.Year,
		Mileage:         l.Mileage,
		Images:          images,
		Status:          string(l.Status),
		ExpiresAt:       l.ExpiresAt,
		RejectionReason: l.RejectionReason,
		RejectedAt:      l.RejectedAt,
		CreditCharged:   l.CreditCharged,
		ExpiryNotified:  l.ExpiryNotified,
		Version:         l.Version,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func listingToDomain(row *DBListing) *domain.Listing {
	return &domain.Listing{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		Title:           row.Title,
		Description:     row.Description,
		Category:        domain.Category(row.Category),
		SubCategory:     row.SubCategory,
		Price:           row.Price,
		Year:            row.Year,
		Mileage:         row.Mileage,
		Images:          row.Images,
		Status:          domain.ListingStatus(row.Status),
		ExpiresAt:       row.ExpiresAt,
		RejectionReason: row.RejectionReason,
		RejectedAt:      row.RejectedAt,
		CreditCharged:   row.CreditCharged,
		ExpiryNotified:  row.ExpiryNotified,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func listingsToDomain(rows []DBListing) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, listingToDomain(&rows[i]))
	}
	return out
}
