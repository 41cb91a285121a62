package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
	"go.uber.org/zap"
)

// ListingConfig holds lifecycle durations
type ListingConfig struct {
	Lifetime    time.Duration
	RenewWindow time.Duration
}

// ListingServiceImpl implements domain.ListingService
type ListingServiceImpl struct {
	tx       domain.TxManager
	listings domain.ListingRepository
	feed     domain.FeedRepository
	ledger   domain.LedgerService
	notifier domain.NotificationService
	metrics  *metrics.Metrics
	log      *zap.Logger
	config   ListingConfig
	now      func() time.Time

	wg sync.WaitGroup
}

// NewListingService creates a listing service
func NewListingService(
	tx domain.TxManager,
	listings domain.ListingRepository,
	feed domain.FeedRepository,
	ledger domain.LedgerService,
	notifier domain.NotificationService,
	m *metrics.Metrics,
	log *zap.Logger,
	config ListingConfig,
) *ListingServiceImpl {
	return &ListingServiceImpl{
		tx:       tx,
		listings: listings,
		feed:     feed,
		ledger:   ledger,
		notifier: notifier,
		metrics:  m,
		log:      log,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the draft, charges a credit when the feature is on and stores the listing as pending
func (s *ListingServiceImpl) Create(ctx context.Context, ownerID uint, draft domain.ListingDraft) (*domain.Listing, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	listing := &domain.Listing{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Status:  domain.StatusPending,
	}
	applyDraft(listing, draft)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		enabled, err := s.ledger.CreditsEnabled(ctx)
		if err != nil {
			return err
		}
		if enabled {
			charged, err := s.ledger.UseCredit(ctx, ownerID, draft.Category)
			if err != nil {
				return err
			}
			if !charged {
				return domain.ErrInsufficientCredits
			}
			listing.CreditCharged = true
		}
		return s.listings.Create(ctx, listing)
	})
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.metrics.ListingCreated(string(listing.Category))
	s.log.Info("listing created",
		zap.String("listing_id", listing.ID),
		zap.Uint("owner_id", ownerID),
		zap.Bool("credit_charged", listing.CreditCharged))
	s.notifyAdminsAsync(ctx, listing)
	return listing, nil
}

func (s *ListingServiceImpl) notifyAdminsAsync(ctx context.Context, listing *domain.Listing) {
	snapshot := *listing
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.notifier.NotifyAdmins(ctx, &snapshot)
	}()
}

// Wait blocks until background admin notifications have finished
func (s *ListingServiceImpl) Wait() {
	s.wg.Wait()
}

// Get returns a listing. Listings outside the public feed are visible to their owner and to admins only.
func (s *ListingServiceImpl) Get(ctx context.Context, id string, viewer *domain.User) (*domain.Listing, error) {
	if viewer == nil {
		return s.feed.FindVisible(ctx, id, s.now())
	}
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.IsVisible(s.now()) || listing.OwnerID == viewer.ID || viewer.IsAdmin() {
		return listing, nil
	}
	return nil, domain.ErrListingNotFound
}

// Feed returns visible listings matching filter
func (s *ListingServiceImpl) Feed(ctx context.Context, filter domain.FeedFilter) ([]*domain.Listing, error) {
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, domain.NewValidationError("category", "unknown category")
	}
	if filter.SubCategory != "" && filter.Category != "" && !domain.ValidCategoryPair(filter.Category, filter.SubCategory) {
		return nil, domain.NewValidationError("sub_category", domain.ErrInvalidCategoryPair.Error())
	}
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return s.feed.ListVisible(ctx, filter, s.now())
}

func (s *ListingServiceImpl) ListMine(ctx context.Context, ownerID uint, limit, offset int) ([]*domain.Listing, error) {
	limit, offset = normalizePage(limit, offset)
	return s.listings.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *ListingServiceImpl) ListPending(ctx context.Context, limit, offset int) ([]*domain.Listing, error) {
	limit, offset = normalizePage(limit, offset)
	return s.listings.ListByStatus(ctx, domain.StatusPending, limit, offset)
}

// Edit replaces the editable fields and sends the listing back to review
func (s *ListingServiceImpl) Edit(ctx context.Context, ownerID uint, id string, draft domain.ListingDraft) (*domain.Listing, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	listing, err := s.ownedListing(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if _, err := domain.Transition(listing.Status, domain.ActionEdit); err != nil {
		return nil, s.transitionFailed(domain.ActionEdit, err)
	}
	if listing.CreditCharged && draft.Category != listing.Category {
		return nil, domain.ErrCategoryLocked
	}

	version := listing.Version
	applyDraft(listing, draft)
	if err := s.listings.Edit(ctx, listing, version); err != nil {
		return nil, s.transitionFailed(domain.ActionEdit, err)
	}
	s.metrics.Transition(string(domain.ActionEdit), "ok")

	updated, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyAdminsAsync(ctx, updated)
	return updated, nil
}

// Approve publishes a pending listing. Only one concurrent caller succeeds.
func (s *ListingServiceImpl) Approve(ctx context.Context, id string) (*domain.Listing, error) {
	expiresAt := s.now().Add(s.config.Lifetime)
	if err := s.listings.Approve(ctx, id, expiresAt); err != nil {
		return nil, s.transitionFailed(domain.ActionApprove, err)
	}
	s.metrics.Transition(string(domain.ActionApprove), "ok")

	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("listing approved", zap.String("listing_id", id), zap.Time("expires_at", expiresAt))
	s.notify(ctx, domain.NewListingApprovedNotification(listing))
	return listing, nil
}

// Reject declines a pending listing and refunds its credit when one was charged
func (s *ListingServiceImpl) Reject(ctx context.Context, id, reason string) (*domain.Listing, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "is required")
	}

	var (
		listing  *domain.Listing
		refunded bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		listing, err = s.listings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := domain.Transition(listing.Status, domain.ActionReject); err != nil {
			return err
		}
		now := s.now()
		if err := s.listings.Reject(ctx, id, listing.Version, reason, now); err != nil {
			return err
		}
		if listing.CreditCharged {
			if err := s.ledger.RefundCredit(ctx, listing.OwnerID, listing.Category); err != nil {
				return err
			}
			refunded = true
		}
		listing.Status = domain.StatusRejected
		listing.RejectionReason = reason
		listing.RejectedAt = &now
		listing.CreditCharged = false
		listing.Version++
		return nil
	})
	if err != nil {
		return nil, s.transitionFailed(domain.ActionReject, err)
	}
	s.metrics.Transition(string(domain.ActionReject), "ok")

	s.log.Info("listing rejected", zap.String("listing_id", id), zap.Bool("refunded", refunded))
	s.notify(ctx, domain.NewListingRejectedNotification(listing, refunded))
	return listing, nil
}

// Renew extends an approved listing inside its renewal window, charging a credit when the feature is on
func (s *ListingServiceImpl) Renew(ctx context.Context, ownerID uint, id string) (*domain.Listing, error) {
	var listing *domain.Listing
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		listing, err = s.ownedListing(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if _, err := domain.Transition(listing.Status, domain.ActionRenew); err != nil {
			return err
		}
		now := s.now()
		if !listing.InRenewWindow(now, s.config.RenewWindow) {
			return domain.ErrRenewNotAllowed
		}

		enabled, err := s.ledger.CreditsEnabled(ctx)
		if err != nil {
			return err
		}
		if enabled {
			charged, err := s.ledger.UseCredit(ctx, ownerID, listing.Category)
			if err != nil {
				return err
			}
			if !charged {
				return domain.ErrInsufficientCredits
			}
		}

		expiresAt := now.Add(s.config.Lifetime)
		if err := s.listings.Renew(ctx, id, listing.Version, expiresAt); err != nil {
			return err
		}
		listing.ExpiresAt = &expiresAt
		listing.ExpiryNotified = false
		listing.Version++
		return nil
	})
	if err != nil {
		return nil, s.transitionFailed(domain.ActionRenew, err)
	}
	s.metrics.Transition(string(domain.ActionRenew), "ok")
	s.log.Info("listing renewed", zap.String("listing_id", id), zap.Time("expires_at", *listing.ExpiresAt))
	return listing, nil
}

// MarkSold takes an approved listing off the market for good
func (s *ListingServiceImpl) MarkSold(ctx context.Context, ownerID uint, id string) (*domain.Listing, error) {
	listing, err := s.ownedListing(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if _, err := domain.Transition(listing.Status, domain.ActionMarkSold); err != nil {
		return nil, s.transitionFailed(domain.ActionMarkSold, err)
	}
	if err := s.listings.MarkSold(ctx, id, listing.Version); err != nil {
		return nil, s.transitionFailed(domain.ActionMarkSold, err)
	}
	s.metrics.Transition(string(domain.ActionMarkSold), "ok")
	listing.Status = domain.StatusSold
	listing.Version++
	return listing, nil
}

// DeleteByOwner removes the caller's listing. Consumed credits are not refunded.
func (s *ListingServiceImpl) DeleteByOwner(ctx context.Context, ownerID uint, id string) error {
	if _, err := s.ownedListing(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("listing deleted by owner", zap.String("listing_id", id), zap.Uint("owner_id", ownerID))
	return nil
}

// DeleteByAdmin removes any listing and tells the owner why
func (s *ListingServiceImpl) DeleteByAdmin(ctx context.Context, id, reason string) error {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("listing deleted by admin", zap.String("listing_id", id), zap.String("reason", reason))
	s.notify(ctx, domain.NewListingDeletedNotification(listing, strings.TrimSpace(reason)))
	return nil
}

func (s *ListingServiceImpl) ownedListing(ctx context.Context, ownerID uint, id string) (*domain.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}
	return listing, nil
}

func (s *ListingServiceImpl) notify(ctx context.Context, n *domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("listing notification failed",
			zap.String("type", string(n.Type)),
			zap.Uint("user_id", n.UserID),
			zap.Error(err))
	}
}

// transitionFailed records the outcome of a refused transition and passes err through
func (s *ListingServiceImpl) transitionFailed(action domain.ListingAction, err error) error {
	outcome := "error"
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		outcome = "conflict"
	case errors.Is(err, domain.ErrListingNotFound):
		outcome = "not_found"
	case errors.Is(err, domain.ErrInsufficientCredits):
		outcome = "insufficient_credits"
	case errors.Is(err, domain.ErrRenewNotAllowed):
		outcome = "outside_window"
	case errors.Is(err, domain.ErrNotOwner):
		outcome = "forbidden"
	}
	s.metrics.Transition(string(action), outcome)
	return err
}

func applyDraft(l *domain.Listing, d domain.ListingDraft) {
	l.Title = strings.TrimSpace(d.Title)
	l.Description = strings.TrimSpace(d.Description)
	l.Category = d.Category
	l.SubCategory = d.SubCategory
	l.Price = d.Price
	l.Year = d.Year
	l.Mileage = d.Mileage
	l.Images = append([]string(nil), d.Images...)
}

var _ domain.ListingService = (*ListingServiceImpl)(nil)
