package repositories

import (
	"context"
	"errors"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepositoryImpl implements domain.SettingsRepository on the app_settings table
type SettingsRepositoryImpl struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) domain.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

// Get returns the stored value and whether the key exists
func (r *SettingsRepositoryImpl) Get(ctx context.Context, key string) (string, bool, error) {
	var row DBSetting
	err := conn(ctx, r.db).Where("setting_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// Set upserts key
func (r *SettingsRepositoryImpl) Set(ctx context.Context, key, value string) error {
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&DBSetting{Key: key, Value: value}).Error
}
