package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/repositories"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/mocks"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testEpoch = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(repositories.Models()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// fixture wires the real repositories over SQLite with an SMS mock at the edge
type fixture struct {
	db            *gorm.DB
	tx            domain.TxManager
	users         domain.UserRepository
	listingRepo   domain.ListingRepository
	notifications domain.NotificationRepository
	transactions  domain.TransactionRepository
	packages      domain.PackageRepository
	settings      domain.SettingsRepository
	sms           *mocks.MockSMSSender
	notifier      *NotificationServiceImpl
	ledger        *LedgerServiceImpl
	listings      *ListingServiceImpl
	clock         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	log := zap.NewNop()

	f := &fixture{
		db:            db,
		tx:            repositories.NewTxManager(db),
		users:         repositories.NewUserRepository(db),
		listingRepo:   repositories.NewListingRepository(db),
		notifications: repositories.NewNotificationRepository(db),
		transactions:  repositories.NewTransactionRepository(db),
		packages:      repositories.NewPackageRepository(db),
		settings:      repositories.NewSettingsRepository(db),
		sms:           mocks.NewMockSMSSender(),
		clock:         testEpoch,
	}
	f.notifier = NewNotificationService(f.tx, f.notifications, f.users, f.sms, nil, log)
	f.ledger = NewLedgerService(f.tx, f.users, f.transactions, f.settings, f.notifier, nil, log, true)
	f.listings = NewListingService(f.tx, f.listingRepo, repositories.NewFeedRepository(sqlx.NewDb(sqlDB, "sqlite3")),
		f.ledger, f.notifier, nil, log, ListingConfig{
			Lifetime:    30 * 24 * time.Hour,
			RenewWindow: 7 * 24 * time.Hour,
		})
	f.listings.now = func() time.Time { return f.clock }

	// background notifications must finish before the database closes
	t.Cleanup(func() {
		f.listings.Wait()
		f.notifier.Wait()
	})
	return f
}

func (f *fixture) seedUser(t *testing.T, phone, role string, spare, auto int) *domain.User {
	t.Helper()
	user := &domain.User{
		Phone:             phone,
		Role:              role,
		IsActive:          true,
		SparePartsCredits: spare,
		AutomotiveCredits: auto,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func (f *fixture) balances(t *testing.T, userID uint) domain.Balances {
	t.Helper()
	b, err := f.users.GetBalances(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to read balances: %v", err)
	}
	return b
}

func (f *fixture) countNotifications(t *testing.T, listingID string, typ domain.NotificationType) int64 {
	t.Helper()
	n, err := f.notifications.CountByListingAndType(context.Background(), listingID, typ)
	if err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	return n
}

func validDraft() domain.ListingDraft {
	price := 1500.0
	return domain.ListingDraft{
		Title:       "Brake pads",
		Description: "OEM front brake pads",
		Category:    domain.CategorySpareParts,
		SubCategory: "brakes",
		Price:       &price,
		Images:      []string{"uploads/brakes-1.jpg"},
	}
}

// createTestContext creates a context for testing with timeout
func createTestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
