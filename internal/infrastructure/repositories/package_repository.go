package repositories

import (
	"context"
	"errors"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"gorm.io/gorm"
)

// PackageRepositoryImpl implements domain.PackageRepository using GORM
type PackageRepositoryImpl struct {
	db *gorm.DB
}

// NewPackageRepository creates a new credit package repository
func NewPackageRepository(db *gorm.DB) domain.PackageRepository {
	return &PackageRepositoryImpl{db: db}
}

func (r *PackageRepositoryImpl) Create(ctx context.Context, pkg *domain.CreditPackage) error {
	row := &DBCreditPackage{
		Name:     pkg.Name,
		Category: string(pkg.Category),
		Credits:  pkg.Credits,
		Price:    pkg.Price,
		Currency: pkg.Currency,
		Active:   pkg.Active,
	}
	if err := conn(ctx, r.db).Create(row).Error; err != nil {
		return err
	}
	pkg.ID = row.ID
	pkg.CreatedAt = row.CreatedAt
	return nil
}

func (r *PackageRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.CreditPackage, error) {
	var row DBCreditPackage
	if err := conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	return packageToDomain(&row), nil
}

// ListActive returns purchasable packages grouped by category, cheapest first
func (r *PackageRepositoryImpl) ListActive(ctx context.Context) ([]*domain.CreditPackage, error) {
	var rows []DBCreditPackage
	err := conn(ctx, r.db).Where("active = ?", true).Order("category").Order("price").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.CreditPackage, 0, len(rows))
	for i := range rows {
		out = append(out, packageToDomain(&rows[i]))
	}
	return out, nil
}

func (r *PackageRepositoryImpl) Deactivate(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Model(&DBCreditPackage{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func packageToDomain(row *DBCreditPackage) *domain.CreditPackage {
	return &domain.CreditPackage{
		ID:        row.ID,
		Name:      row.Name,
		Category:  domain.Category(row.Category),
		Credits:   row.Credits,
		Price:     row.Price,
		Currency:  row.Currency,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
	}
}
