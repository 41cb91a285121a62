package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// creditColumn maps a category to the column holding its pool
func creditColumn(category domain.Category) (string, error) {
	switch category {
	case domain.CategorySpareParts:
		return "spare_parts_credits", nil
	case domain.CategoryAutomotive:
		return "automotive_credits", nil
	}
	return "", fmt.Errorf("unknown category %q: %w", category, domain.ErrInvalidCategoryPair)
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	if err := conn(ctx, r.db).Create(dbUser).Error; err != nil {
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByPhone implements domain.UserRepository
func (r *UserRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var dbUser DBUser
	err := conn(ctx, r.db).Where("phone = ?", phone).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := conn(ctx, r.db).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// Update writes profile fields only. Credit columns change through the ledger methods.
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	res := conn(ctx, r.db).Model(&DBUser{}).Where("id = ?", user.ID).
		Select("phone", "email", "name", "role", "is_active", "updated_at").
		Updates(r.domainToDB(user))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListAdmins implements domain.UserRepository
func (r *UserRepositoryImpl) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	var rows []DBUser
	if err := conn(ctx, r.db).Where("role = ? AND is_active = ?", domain.RoleAdmin, true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, r.dbToDomain(&rows[i]))
	}
	return users, nil
}

// ListActiveIDs implements domain.UserRepository
func (r *UserRepositoryImpl) ListActiveIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&DBUser{}).Where("is_active = ?", true).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// DebitCredit implements domain.UserRepository with a single conditional UPDATE
func (r *UserRepositoryImpl) DebitCredit(ctx context.Context, userID uint, category domain.Category) (bool, error) {
	col, err := creditColumn(category)
	if err != nil {
		return false, err
	}

	db := conn(ctx, r.db)
	res := db.Model(&DBUser{}).
		Where("id = ? AND "+col+" >= 1", userID).
		UpdateColumn(col, gorm.Expr(col+" - 1"))
	if res.Error != nil {
		return false, fmt.Errorf("debit credit: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := db.Model(&DBUser{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, domain.ErrUserNotFound
	}
	return false, nil
}

// AddCredits implements domain.UserRepository
func (r *UserRepositoryImpl) AddCredits(ctx context.Context, userID uint, category domain.Category, amount int) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	col, err := creditColumn(category)
	if err != nil {
		return err
	}

	res := conn(ctx, r.db).Model(&DBUser{}).
		Where("id = ?", userID).
		UpdateColumn(col, gorm.Expr(col+" + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("add credits: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// GetBalances implements domain.UserRepository
func (r *UserRepositoryImpl) GetBalances(ctx context.Context, userID uint) (domain.Balances, error) {
	var row DBUser
	err := conn(ctx, r.db).Select("id", "spare_parts_credits", "automotive_credits").
		Where("id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Balances{}, domain.ErrUserNotFound
		}
		return domain.Balances{}, err
	}
	return domain.Balances{
		SparePartsCredits: row.SparePartsCredits,
		AutomotiveCredits: row.AutomotiveCredits,
	}, nil
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:                user.ID,
		Phone:             user.Phone,
		Email:             user.Email,
		Name:              user.Name,
		Role:              user.Role,
		IsActive:          user.IsActive,
		SparePartsCredits: user.SparePartsCredits,
		AutomotiveCredits: user.AutomotiveCredits,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:                dbUser.ID,
		Phone:             dbUser.Phone,
		Email:             dbUser.Email,
		Name:              dbUser.Name,
		Role:              dbUser.Role,
		IsActive:          dbUser.IsActive,
		SparePartsCredits: dbUser.SparePartsCredits,
		AutomotiveCredits: dbUser.AutomotiveCredits,
		CreatedAt:         dbUser.CreatedAt,
		UpdatedAt:         dbUser.UpdatedAt,
	}
}
