package domain

import "time"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a marketplace account identified by phone number
type User struct {
	ID                uint
	Phone             string
	Email             string
	Name              string
	Role              string
	IsActive          bool
	SparePartsCredits int
	AutomotiveCredits int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Balances is a read-only snapshot of a user's two credit pools
type Balances struct {
	SparePartsCredits int `json:"spare_parts_credits"`
	AutomotiveCredits int `json:"automotive_credits"`
}

// For returns the balance of the pool backing the given category
func (b Balances) For(category Category) int {
	if category == CategoryAutomotive {
		return b.AutomotiveCredits
	}
	return b.SparePartsCredits
}

// Listing is a post offered on the marketplace
type Listing struct {
	ID              string
	OwnerID         uint
	Title           string
	Description     string
	Category        Category
	SubCategory     string
	Price           *float64
	Year            *int
	Mileage         *int
	Images          []string
	Status          ListingStatus
	ExpiresAt       *time.Time
	RejectionReason string
	RejectedAt      *time.Time
	CreditCharged   bool
	ExpiryNotified  bool
	// Version increments on every write and guards read-modify-write sequences
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsVisible reports whether the listing belongs in the public feed at the given instant
func (l *Listing) IsVisible(now time.Time) bool {
	if l.Status != StatusApproved {
		return false
	}
	return l.ExpiresAt == nil || l.ExpiresAt.After(now)
}

// InRenewWindow reports whether now falls within window of the listing's expiry on either side
func (l *Listing) InRenewWindow(now time.Time, window time.Duration) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return !now.Before(l.ExpiresAt.Add(-window)) && !now.After(l.ExpiresAt.Add(window))
}

// ListingDraft carries the caller-editable fields of a listing
type ListingDraft struct {
	Title       string
	Description string
	Category    Category
	SubCategory string
	Price       *float64
	Year        *int
	Mileage     *int
	Images      []string
}

// FeedFilter narrows the public feed
type FeedFilter struct {
	Category    Category
	SubCategory string
	Query       string
	MinPrice    *float64
	MaxPrice    *float64
	MinYear     *int
	MaxYear     *int
	Limit       int
	Offset      int
}

// TransactionStatus is the lifecycle state of a credit purchase
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// IsTerminal reports whether no further status change is permitted
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

// TransactionSource tells how the credits entered the ledger
type TransactionSource string

const (
	SourcePurchase TransactionSource = "purchase"
	SourceGrant    TransactionSource = "grant"
)

// Transaction records a credit purchase or admin grant
type Transaction struct {
	ID            uint
	Reference     string
	UserID        uint
	PackageID     *uint
	Category      Category
	Amount        int64
	Currency      string
	Credits       int
	Status        TransactionStatus
	Source        TransactionSource
	GatewayRef    string
	FailureReason string
	GrantedBy     *uint
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreditPackage is a purchasable bundle of credits for one category
type CreditPackage struct {
	ID        uint
	Name      string
	Category  Category
	Credits   int
	Price     int64
	Currency  string
	Active    bool
	CreatedAt time.Time
}

// Notification is an in-app message addressed to one user
type Notification struct {
	ID        uint
	UserID    uint
	Type      NotificationType
	Title     string
	Message   string
	Read      bool
	ListingID *string
	CreatedAt time.Time
}

// Checkout is returned to the client after a purchase is initiated
type Checkout struct {
	Reference     string
	PaymentURL    string
	CheckoutToken string
	Status        TransactionStatus
}

// OTPRequest represents an issued one-time login code
type OTPRequest struct {
	Phone     string
	Code      string
	ExpiresAt time.Time
}

// Session represents a user session
type Session struct {
	ID        string
	UserID    uint
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresIn    int64
	IsNewUser    bool
}
