package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
	"go.uber.org/zap"
)

// SettingCreditsEnabled is the settings key holding the global credit feature toggle
const SettingCreditsEnabled = "credits_enabled"

// LedgerServiceImpl implements domain.LedgerService
type LedgerServiceImpl struct {
	tx             domain.TxManager
	users          domain.UserRepository
	transactions   domain.TransactionRepository
	settings       domain.SettingsRepository
	notifier       domain.NotificationService
	metrics        *metrics.Metrics
	log            *zap.Logger
	defaultEnabled bool
}

// NewLedgerService creates a ledger. defaultEnabled applies until an admin stores a toggle.
func NewLedgerService(
	tx domain.TxManager,
	users domain.UserRepository,
	transactions domain.TransactionRepository,
	settings domain.SettingsRepository,
	notifier domain.NotificationService,
	m *metrics.Metrics,
	log *zap.Logger,
	defaultEnabled bool,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		tx:             tx,
		users:          users,
		transactions:   transactions,
		settings:       settings,
		notifier:       notifier,
		metrics:        m,
		log:            log,
		defaultEnabled: defaultEnabled,
	}
}

// CreditsEnabled implements domain.LedgerService
func (s *LedgerServiceImpl) CreditsEnabled(ctx context.Context) (bool, error) {
	v, ok, err := s.settings.Get(ctx, SettingCreditsEnabled)
	if err != nil {
		return false, fmt.Errorf("read credit toggle: %w", err)
	}
	if !ok {
		return s.defaultEnabled, nil
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		s.log.Warn("unparseable credit toggle, using default", zap.String("value", v))
		return s.defaultEnabled, nil
	}
	return enabled, nil
}

// SetCreditsEnabled implements domain.LedgerService
func (s *LedgerServiceImpl) SetCreditsEnabled(ctx context.Context, enabled bool) error {
	if err := s.settings.Set(ctx, SettingCreditsEnabled, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("store credit toggle: %w", err)
	}
	s.log.Info("credit feature toggled", zap.Bool("enabled", enabled))
	return nil
}

// UseCredit implements domain.LedgerService. It reports false without mutation
// when the feature is off or the pool is empty.
func (s *LedgerServiceImpl) UseCredit(ctx context.Context, userID uint, category domain.Category) (bool, error) {
	enabled, err := s.CreditsEnabled(ctx)
	if err != nil {
		return false, err
	}
	if !enabled {
		return false, nil
	}
	ok, err := s.users.DebitCredit(ctx, userID, category)
	if err != nil {
		return false, fmt.Errorf("debit %s credit: %w", category, err)
	}
	if ok {
		s.metrics.Credits("debit", string(category), 1)
	}
	return ok, nil
}

// RefundCredit implements domain.LedgerService
func (s *LedgerServiceImpl) RefundCredit(ctx context.Context, userID uint, category domain.Category) error {
	if err := s.users.AddCredits(ctx, userID, category, 1); err != nil {
		return fmt.Errorf("refund %s credit: %w", category, err)
	}
	s.metrics.Credits("refund", string(category), 1)
	return nil
}

// AddCredits implements domain.LedgerService
func (s *LedgerServiceImpl) AddCredits(ctx context.Context, userID uint, category domain.Category, amount int) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if !category.IsValid() {
		return domain.NewValidationError("category", "unknown category")
	}
	if err := s.users.AddCredits(ctx, userID, category, amount); err != nil {
		return fmt.Errorf("add %s credits: %w", category, err)
	}
	s.metrics.Credits("add", string(category), amount)
	return nil
}

// GetBalances implements domain.LedgerService
func (s *LedgerServiceImpl) GetBalances(ctx context.Context, userID uint) (domain.Balances, error) {
	return s.users.GetBalances(ctx, userID)
}

// GrantCredits records a completed grant transaction and credits the user in one unit of work
func (s *LedgerServiceImpl) GrantCredits(ctx context.Context, adminID, userID uint, category domain.Category, amount int) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if !category.IsValid() {
		return nil, domain.NewValidationError("category", "unknown category")
	}

	grantedBy := adminID
	record := &domain.Transaction{
		Reference: uuid.NewString(),
		UserID:    userID,
		Category:  category,
		Credits:   amount,
		Status:    domain.TransactionCompleted,
		Source:    domain.SourceGrant,
		GrantedBy: &grantedBy,
		CreatedAt: time.Now().UTC(),
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, record); err != nil {
			return fmt.Errorf("record grant: %w", err)
		}
		return s.users.AddCredits(ctx, userID, category, amount)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Credits("grant", string(category), amount)
	s.log.Info("credits granted",
		zap.Uint("admin_id", adminID),
		zap.Uint("user_id", userID),
		zap.String("category", string(category)),
		zap.Int("amount", amount))

	if err := s.notifier.Notify(ctx, domain.NewCreditsAddedNotification(userID, category, amount)); err != nil {
		s.log.Warn("credits notification failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return record, nil
}

var _ domain.LedgerService = (*LedgerServiceImpl)(nil)
