package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/metrics"
	"go.uber.org/zap"
)

const reconcileBatch = 50

// PurchaseConfig tunes the gateway flow
type PurchaseConfig struct {
	GatewayTimeout time.Duration
	ReturnBaseURL  string
	ReconcileAfter time.Duration
}

// PurchaseServiceImpl implements domain.PurchaseService
type PurchaseServiceImpl struct {
	tx           domain.TxManager
	packages     domain.PackageRepository
	transactions domain.TransactionRepository
	checkouts    domain.CheckoutTokenStore
	gateway      domain.PaymentGateway
	ledger       domain.LedgerService
	notifier     domain.NotificationService
	metrics      *metrics.Metrics
	log          *zap.Logger
	config       PurchaseConfig
	now          func() time.Time
}

// NewPurchaseService creates a purchase service
func NewPurchaseService(
	tx domain.TxManager,
	packages domain.PackageRepository,
	transactions domain.TransactionRepository,
	checkouts domain.CheckoutTokenStore,
	gateway domain.PaymentGateway,
	ledger domain.LedgerService,
	notifier domain.NotificationService,
	m *metrics.Metrics,
	log *zap.Logger,
	config PurchaseConfig,
) *PurchaseServiceImpl {
	return &PurchaseServiceImpl{
		tx:           tx,
		packages:     packages,
		transactions: transactions,
		checkouts:    checkouts,
		gateway:      gateway,
		ledger:       ledger,
		notifier:     notifier,
		metrics:      m,
		log:          log,
		config:       config,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *PurchaseServiceImpl) ListPackages(ctx context.Context) ([]*domain.CreditPackage, error) {
	return s.packages.ListActive(ctx)
}

// CreatePackage validates and stores a new purchasable bundle
func (s *PurchaseServiceImpl) CreatePackage(ctx context.Context, pkg *domain.CreditPackage) error {
	pkg.Name = strings.TrimSpace(pkg.Name)
	pkg.Currency = strings.ToUpper(strings.TrimSpace(pkg.Currency))
	if pkg.Currency == "" {
		pkg.Currency = "AED"
	}

	verr := &domain.ValidationError{}
	if pkg.Name == "" {
		verr.Add("name", "is required")
	}
	if !pkg.Category.IsValid() {
		verr.Add("category", "unknown category")
	}
	if pkg.Credits <= 0 {
		verr.Add("credits", "must be positive")
	}
	if pkg.Price <= 0 {
		verr.Add("price", "must be positive")
	}
	if len(pkg.Currency) != 3 {
		verr.Add("currency", "must be a three letter code")
	}
	if !verr.Empty() {
		return verr
	}

	pkg.Active = true
	return s.packages.Create(ctx, pkg)
}

func (s *PurchaseServiceImpl) DeactivatePackage(ctx context.Context, id uint) error {
	return s.packages.Deactivate(ctx, id)
}

// Initiate records a pending transaction and opens a gateway order for it.
// A gateway timeout leaves the transaction pending for later verification.
func (s *PurchaseServiceImpl) Initiate(ctx context.Context, userID, packageID uint) (*domain.Checkout, error) {
	pkg, err := s.packages.FindByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, domain.ErrPackageNotFound
	}

	pkgID := pkg.ID
	record := &domain.Transaction{
		Reference: uuid.NewString(),
		UserID:    userID,
		PackageID: &pkgID,
		Category:  pkg.Category,
		Amount:    pkg.Price,
		Currency:  pkg.Currency,
		Credits:   pkg.Credits,
		Status:    domain.TransactionPending,
		Source:    domain.SourcePurchase,
		CreatedAt: s.now(),
	}
	if err := s.transactions.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	token := uuid.NewString()
	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	order, err := s.gateway.CreateOrder(gctx, domain.GatewayOrderRequest{
		CartID:      record.Reference,
		Amount:      pkg.Price,
		Currency:    pkg.Currency,
		Description: pkg.Name,
		ReturnURL:   strings.TrimRight(s.config.ReturnBaseURL, "/") + "/payments/return/" + token,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGatewayDeclined) {
			if _, ferr := s.transactions.Fail(ctx, record.Reference, err.Error()); ferr != nil {
				s.log.Error("mark declined purchase failed", zap.String("reference", record.Reference), zap.Error(ferr))
			}
			s.metrics.Payment("initiate", "declined")
		} else {
			s.metrics.Payment("initiate", "unavailable")
		}
		s.log.Warn("gateway order not created", zap.String("reference", record.Reference), zap.Error(err))
		return nil, err
	}

	if err := s.transactions.SetGatewayRef(ctx, record.Reference, order.Ref); err != nil {
		return nil, fmt.Errorf("store gateway reference: %w", err)
	}
	if err := s.checkouts.Save(ctx, token, record.Reference); err != nil {
		return nil, fmt.Errorf("store checkout token: %w", err)
	}
	s.metrics.Payment("initiate", "ok")
	s.log.Info("purchase initiated",
		zap.String("reference", record.Reference),
		zap.Uint("user_id", userID),
		zap.Uint("package_id", packageID))

	return &domain.Checkout{
		Reference:     record.Reference,
		PaymentURL:    order.PaymentURL,
		CheckoutToken: token,
		Status:        domain.TransactionPending,
	}, nil
}

// Verify asks the gateway for the order state and settles the transaction.
// Credits are added by whichever caller moves the transaction out of pending, so
// duplicate callbacks credit at most once.
func (s *PurchaseServiceImpl) Verify(ctx context.Context, reference string) (*domain.Transaction, error) {
	record, err := s.transactions.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if record.Status.IsTerminal() || record.GatewayRef == "" {
		return record, nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	state, detail, err := s.gateway.CheckOrder(gctx, record.GatewayRef)
	if err != nil {
		s.metrics.Payment("verify", "unavailable")
		return nil, err
	}

	switch state {
	case domain.GatewayPaid:
		won := false
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			won, err = s.transactions.Complete(ctx, reference)
			if err != nil || !won {
				return err
			}
			return s.ledger.AddCredits(ctx, record.UserID, record.Category, record.Credits)
		})
		if err != nil {
			return nil, fmt.Errorf("settle purchase: %w", err)
		}
		if won {
			s.metrics.Payment("verify", "completed")
			s.log.Info("purchase completed", zap.String("reference", reference), zap.Int("credits", record.Credits))
			if err := s.notifier.Notify(ctx, domain.NewCreditsAddedNotification(record.UserID, record.Category, record.Credits)); err != nil {
				s.log.Warn("credits notification failed", zap.String("reference", reference), zap.Error(err))
			}
		}
	case domain.GatewayDeclined:
		won, err := s.transactions.Fail(ctx, reference, detail)
		if err != nil {
			return nil, fmt.Errorf("fail purchase: %w", err)
		}
		if won {
			s.metrics.Payment("verify", "failed")
			s.log.Info("purchase failed", zap.String("reference", reference), zap.String("status", detail))
		}
	default:
		s.metrics.Payment("verify", "pending")
	}

	return s.transactions.FindByReference(ctx, reference)
}

// VerifyGatewayRef settles the transaction owning a gateway order reference
func (s *PurchaseServiceImpl) VerifyGatewayRef(ctx context.Context, gatewayRef string) (*domain.Transaction, error) {
	record, err := s.transactions.FindByGatewayRef(ctx, gatewayRef)
	if err != nil {
		return nil, err
	}
	return s.Verify(ctx, record.Reference)
}

func (s *PurchaseServiceImpl) ResolveCheckoutToken(ctx context.Context, token string) (string, error) {
	return s.checkouts.Resolve(ctx, token)
}

func (s *PurchaseServiceImpl) History(ctx context.Context, userID uint, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = normalizePage(limit, offset)
	return s.transactions.ListByUser(ctx, userID, limit, offset)
}

// ReconcilePending re-verifies purchases left pending longer than the reconcile horizon.
// It returns how many reached a terminal state.
func (s *PurchaseServiceImpl) ReconcilePending(ctx context.Context) (int, error) {
	stale, err := s.transactions.ListPendingBefore(ctx, s.now().Add(-s.config.ReconcileAfter), reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("list pending purchases: %w", err)
	}

	settled := 0
	for _, record := range stale {
		if record.GatewayRef == "" {
			won, err := s.transactions.Fail(ctx, record.Reference, "gateway order was never created")
			if err != nil {
				s.log.Error("reconcile orphaned purchase", zap.String("reference", record.Reference), zap.Error(err))
				continue
			}
			if won {
				settled++
			}
			continue
		}
		updated, err := s.Verify(ctx, record.Reference)
		if err != nil {
			s.log.Warn("reconcile verify failed", zap.String("reference", record.Reference), zap.Error(err))
			continue
		}
		if updated.Status.IsTerminal() {
			settled++
		}
	}
	if settled > 0 {
		s.log.Info("pending purchases reconciled", zap.Int("settled", settled), zap.Int("examined", len(stale)))
	}
	return settled, nil
}

var _ domain.PurchaseService = (*PurchaseServiceImpl)(nil)
