package services

import (
	"context"
	"fmt"
	"time"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
	"go.uber.org/zap"
)

const sweepLockKey = "lock:listing-sweep"

// SweepConfig holds the sweep horizons
type SweepConfig struct {
	RejectedRetention time.Duration
	ExpiryWarning     time.Duration
	LockTTL           time.Duration
}

// SweepServiceImpl implements domain.SweepService
type SweepServiceImpl struct {
	tx            domain.TxManager
	listings      domain.ListingRepository
	notifications domain.NotificationRepository
	notifier      domain.NotificationService
	locker        domain.Locker
	metrics       *metrics.Metrics
	log           *zap.Logger
	config        SweepConfig
	now           func() time.Time
}

// NewSweepService creates a sweep service. locker may be nil for single instance deployments.
func NewSweepService(
	tx domain.TxManager,
	listings domain.ListingRepository,
	notifications domain.NotificationRepository,
	notifier domain.NotificationService,
	locker domain.Locker,
	m *metrics.Metrics,
	log *zap.Logger,
	config SweepConfig,
) *SweepServiceImpl {
	return &SweepServiceImpl{
		tx:            tx,
		listings:      listings,
		notifications: notifications,
		notifier:      notifier,
		locker:        locker,
		metrics:       m,
		log:           log,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run deletes stale rejected listings, deletes expired ones and warns owners of listings about to expire.
// A run that finds the lock held elsewhere reports Skipped.
func (s *SweepServiceImpl) Run(ctx context.Context) (*domain.SweepReport, error) {
	report := &domain.SweepReport{}

	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, sweepLockKey, s.config.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if release == nil {
			s.log.Info("sweep skipped, another instance holds the lock")
			report.Skipped = true
			return report, nil
		}
		defer release()
	}

	defer s.metrics.TrackSweep()()
	now := s.now()

	n, err := s.listings.DeleteRejectedBefore(ctx, now.Add(-s.config.RejectedRetention))
	if err != nil {
		return report, fmt.Errorf("delete stale rejected listings: %w", err)
	}
	report.RejectedDeleted = n
	s.metrics.SweepDeleted("rejected", n)

	n, err = s.listings.DeleteExpired(ctx, now)
	if err != nil {
		return report, fmt.Errorf("delete expired listings: %w", err)
	}
	report.ExpiredDeleted = n
	s.metrics.SweepDeleted("expired", n)

	expiring, err := s.listings.ListExpiringUnflagged(ctx, now, now.Add(s.config.ExpiryWarning))
	if err != nil {
		return report, fmt.Errorf("list expiring listings: %w", err)
	}
	for _, listing := range expiring {
		n, warned, err := s.warn(ctx, listing, now)
		if err != nil {
			s.log.Error("expiry warning failed", zap.String("listing_id", listing.ID), zap.Error(err))
			continue
		}
		if warned {
			report.ExpiryWarnings++
			s.notifier.Dispatch(ctx, n)
		}
	}
	s.metrics.SweepWarned(report.ExpiryWarnings)

	s.log.Info("sweep finished",
		zap.Int64("rejected_deleted", report.RejectedDeleted),
		zap.Int64("expired_deleted", report.ExpiredDeleted),
		zap.Int("expiry_warnings", report.ExpiryWarnings))
	return report, nil
}

// warn flips the expiry flag and stores the warning in one transaction.
// warned is false when a concurrent run flagged the listing first.
func (s *SweepServiceImpl) warn(ctx context.Context, listing *domain.Listing, now time.Time) (*domain.Notification, bool, error) {
	n := domain.NewListingExpiringNotification(listing, now)
	warned := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		flipped, err := s.listings.MarkExpiryNotified(ctx, listing.ID)
		if err != nil || !flipped {
			return err
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return err
		}
		warned = true
		return nil
	})
	return n, warned, err
}

var _ domain.SweepService = (*SweepServiceImpl)(nil)
