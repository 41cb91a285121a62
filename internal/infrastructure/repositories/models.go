package repositories

import "time"

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID                uint      `gorm:"primaryKey"`
	Phone             string    `gorm:"uniqueIndex;size:32;not null"`
	Email             string    `gorm:"index;size:255"`
	Name              string    `gorm:"size:255"`
	Role              string    `gorm:"index;size:64"`
	IsActive          bool      `gorm:"index"`
	SparePartsCredits int       `gorm:"not null;default:0;check:spare_parts_credits >= 0"`
	AutomotiveCredits int       `gorm:"not null;default:0;check:automotive_credits >= 0"`
	CreatedAt         time.Time `gorm:"index"`
	UpdatedAt         time.Time
}

func (DBUser) TableName() string {
	return "users"
}

// DBListing is the persisted listing row. Images are stored as a JSON array.
type DBListing struct {
	ID              string `gorm:"primaryKey;size:36"`
	OwnerID         uint   `gorm:"index;not null"`
	Title           string `gorm:"size:200;not null"`
	Description     string `gorm:"type:text"`
	Category        string `gorm:"index;size:32;not null"`
	SubCategory     string `gorm:"index;size:64;not null"`
	Price           *float64
	Year            *int
	Mileage         *int
	Images          []string   `gorm:"serializer:json;type:text"`
	Status          string     `gorm:"index;size:16;not null"`
	ExpiresAt       *time.Time `gorm:"index"`
	RejectionReason string     `gorm:"type:text"`
	RejectedAt      *time.Time `gorm:"index"`
	CreditCharged   bool
	ExpiryNotified  bool `gorm:"index"`
	Version         int  `gorm:"not null"`
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (DBListing) TableName() string {
	return "listings"
}

// DBTransaction is a credit purchase or grant
type DBTransaction struct {
	ID            uint   `gorm:"primaryKey"`
	Reference     string `gorm:"uniqueIndex;size:36;not null"`
	UserID        uint   `gorm:"index;not null"`
	PackageID     *uint
	Category      string `gorm:"size:32;not null"`
	Amount        int64
	Currency      string `gorm:"size:3"`
	Credits       int    `gorm:"not null"`
	Status        string `gorm:"index;size:16;not null"`
	Source        string `gorm:"size:16;not null"`
	GatewayRef    string `gorm:"index;size:64"`
	FailureReason string `gorm:"type:text"`
	GrantedBy     *uint
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

func (DBTransaction) TableName() string {
	return "transactions"
}

type DBCreditPackage struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	Category  string `gorm:"index;size:32;not null"`
	Credits   int    `gorm:"not null"`
	Price     int64  `gorm:"not null"`
	Currency  string `gorm:"size:3;not null"`
	Active    bool   `gorm:"index"`
	CreatedAt time.Time
}

func (DBCreditPackage) TableName() string {
	return "credit_packages"
}

type DBNotification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Type      string `gorm:"index;size:32;not null"`
	Title     string `gorm:"size:200"`
	Message   string `gorm:"type:text"`
	Read      bool   `gorm:"index"`
	ListingID *string   `gorm:"index;size:36"`
	CreatedAt time.Time `gorm:"index"`
}

func (DBNotification) TableName() string {
	return "notifications"
}

type DBSetting struct {
	Key       string `gorm:"primaryKey;column:setting_key;size:64"`
	Value     string `gorm:"size:255"`
	UpdatedAt time.Time
}

func (DBSetting) TableName() string {
	return "app_settings"
}

// Models lists every table owned by the repositories, in migration order
func Models() []interface{} {
	return []interface{}{
		&DBUser{},
		&DBListing{},
		&DBTransaction{},
		&DBCreditPackage{},
		&DBNotification{},
		&DBSetting{},
	}
}
