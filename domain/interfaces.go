package domain

import (
	"context"
	"time"
)

// TxManager runs fn inside a database transaction. Repositories called with the
// context handed to fn take part in that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines user data access operations, including the two credit columns
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	Update(ctx context.Context, user *User) error
	ListAdmins(ctx context.Context) ([]*User, error)
	ListActiveIDs(ctx context.Context) ([]uint, error)

	// DebitCredit removes one credit from the category pool if the balance allows it.
	// It returns false without error when the balance is zero.
	DebitCredit(ctx context.Context, userID uint, category Category) (bool, error)
	AddCredits(ctx context.Context, userID uint, category Category, amount int) error
	GetBalances(ctx context.Context, userID uint) (Balances, error)
}

// ListingRepository defines listing persistence. Status changing methods are
// conditional updates: when the row is not in an accepted source state they
// return ErrInvalidTransition, or ErrListingNotFound when the row is gone.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*Listing, error)
	ListByStatus(ctx context.Context, status ListingStatus, limit, offset int) ([]*Listing, error)

	Approve(ctx context.Context, id string, expiresAt time.Time) error
	Reject(ctx context.Context, id string, version int, reason string, rejectedAt time.Time) error
	Renew(ctx context.Context, id string, version int, expiresAt time.Time) error
	Edit(ctx context.Context, listing *Listing, version int) error
	MarkSold(ctx context.Context, id string, version int) error
	Delete(ctx context.Context, id string) error

	DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListExpiringUnflagged(ctx context.Context, now, until time.Time) ([]*Listing, error)
	// MarkExpiryNotified flips the expiry flag and reports whether this call changed it
	MarkExpiryNotified(ctx context.Context, id string) (bool, error)
}

// FeedRepository serves the public read side of listings
type FeedRepository interface {
	ListVisible(ctx context.Context, filter FeedFilter, now time.Time) ([]*Listing, error)
	FindVisible(ctx context.Context, id string, now time.Time) (*Listing, error)
}

// TransactionRepository defines credit purchase persistence
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByReference(ctx context.Context, reference string) (*Transaction, error)
	FindByGatewayRef(ctx context.Context, gatewayRef string) (*Transaction, error)
	SetGatewayRef(ctx context.Context, reference, gatewayRef string) error
	// Complete moves a pending transaction to completed and reports whether this call did it
	Complete(ctx context.Context, reference string) (bool, error)
	// Fail moves a pending transaction to failed and reports whether this call did it
	Fail(ctx context.Context, reference, reason string) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*Transaction, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Transaction, error)
}

// PackageRepository defines credit package persistence
type PackageRepository interface {
	Create(ctx context.Context, pkg *CreditPackage) error
	FindByID(ctx context.Context, id uint) (*CreditPackage, error)
	ListActive(ctx context.Context) ([]*CreditPackage, error)
	Deactivate(ctx context.Context, id uint) error
}

// NotificationRepository defines in-app notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	CountByListingAndType(ctx context.Context, listingID string, t NotificationType) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
}

// SettingsRepository stores runtime switches
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// CheckoutTokenStore maps short-lived checkout tokens to transaction references
type CheckoutTokenStore interface {
	Save(ctx context.Context, token, reference string) error
	Resolve(ctx context.Context, token string) (string, error)
}

// Locker provides a cross-instance mutual exclusion lease
type Locker interface {
	// TryLock acquires key for ttl. The returned release func is nil when the lock is held elsewhere.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// LedgerService maintains the two per-user credit pools
type LedgerService interface {
	CreditsEnabled(ctx context.Context) (bool, error)
	SetCreditsEnabled(ctx context.Context, enabled bool) error
	UseCredit(ctx context.Context, userID uint, category Category) (bool, error)
	RefundCredit(ctx context.Context, userID uint, category Category) error
	AddCredits(ctx context.Context, userID uint, category Category, amount int) error
	GetBalances(ctx context.Context, userID uint) (Balances, error)
	GrantCredits(ctx context.Context, adminID, userID uint, category Category, amount int) (*Transaction, error)
}

// ListingService implements the listing lifecycle
type ListingService interface {
	Create(ctx context.Context, ownerID uint, draft ListingDraft) (*Listing, error)
	Get(ctx context.Context, id string, viewer *User) (*Listing, error)
	Feed(ctx context.Context, filter FeedFilter) ([]*Listing, error)
	ListMine(ctx context.Context, ownerID uint, limit, offset int) ([]*Listing, error)
	ListPending(ctx context.Context, limit, offset int) ([]*Listing, error)
	Edit(ctx context.Context, ownerID uint, id string, draft ListingDraft) (*Listing, error)
	Approve(ctx context.Context, id string) (*Listing, error)
	Reject(ctx context.Context, id, reason string) (*Listing, error)
	Renew(ctx context.Context, ownerID uint, id string) (*Listing, error)
	MarkSold(ctx context.Context, ownerID uint, id string) (*Listing, error)
	DeleteByOwner(ctx context.Context, ownerID uint, id string) error
	DeleteByAdmin(ctx context.Context, id, reason string) error
}

// NotificationService records in-app notifications and dispatches them externally
type NotificationService interface {
	// Notify persists n and then dispatches it best-effort
	Notify(ctx context.Context, n *Notification) error
	// Dispatch sends an already persisted notification outside the app, best-effort
	Dispatch(ctx context.Context, n *Notification)
	NotifyAdmins(ctx context.Context, listing *Listing)
	Broadcast(ctx context.Context, title, message string) (int, error)
	List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
}

// PurchaseService drives credit purchases through the payment gateway
type PurchaseService interface {
	ListPackages(ctx context.Context) ([]*CreditPackage, error)
	CreatePackage(ctx context.Context, pkg *CreditPackage) error
	DeactivatePackage(ctx context.Context, id uint) error
	Initiate(ctx context.Context, userID, packageID uint) (*Checkout, error)
	Verify(ctx context.Context, reference string) (*Transaction, error)
	VerifyGatewayRef(ctx context.Context, gatewayRef string) (*Transaction, error)
	ResolveCheckoutToken(ctx context.Context, token string) (string, error)
	History(ctx context.Context, userID uint, limit, offset int) ([]*Transaction, error)
	ReconcilePending(ctx context.Context) (int, error)
}

// SweepReport summarises one expiration sweep
type SweepReport struct {
	RejectedDeleted int64 `json:"rejected_deleted"`
	ExpiredDeleted  int64 `json:"expired_deleted"`
	ExpiryWarnings  int   `json:"expiry_warnings"`
	Skipped         bool  `json:"skipped"`
}

// SweepService expires, deletes and warns about stale listings
type SweepService interface {
	Run(ctx context.Context) (*SweepReport, error)
}

// GatewayOrderRequest is what the purchase flow asks the gateway to charge
type GatewayOrderRequest struct {
	CartID      string
	Amount      int64
	Currency    string
	Description string
	ReturnURL   string
}

// GatewayOrder is the gateway's answer to an order creation
type GatewayOrder struct {
	Ref        string
	PaymentURL string
}

// GatewayOrderState is the normalised state of an order at the gateway
type GatewayOrderState string

const (
	GatewayPending  GatewayOrderState = "pending"
	GatewayPaid     GatewayOrderState = "paid"
	GatewayDeclined GatewayOrderState = "declined"
)

// PaymentGateway is the external card processor
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	CheckOrder(ctx context.Context, ref string) (GatewayOrderState, string, error)
}

// AuthService defines phone based authentication
type AuthService interface {
	RequestCode(ctx context.Context, phone string) (*OTPRequest, error)
	Login(ctx context.Context, phone, code string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetUserProfile(ctx context.Context, userID uint) (*User, error)
}

// OTPService defines OTP operations
type OTPService interface {
	Generate(ctx context.Context, phone string) (*OTPRequest, error)
	Verify(ctx context.Context, phone, code string) (bool, error)
	CanResend(ctx context.Context, phone string) (bool, int64, error)
}

// CodeHasher hashes one-time codes before they are stored
type CodeHasher interface {
	Hash(code string) (string, error)
	Verify(hashed, code string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(userID uint, role string, sessionID string) (string, error)
	GenerateRefreshToken(userID uint, role string, sessionID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
	AccessTTL() time.Duration
}

// SMSSender delivers text messages
type SMSSender interface {
	SendSMS(to, message string) error
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
