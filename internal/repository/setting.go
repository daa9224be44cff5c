package repository

import (
	"context"
	"strconv"
	"time"

	"anime-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	SeedDefaults(ctx context.Context) error
}

type settingRepoImpl struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepoImpl{
		db: db,
	}
}

// GetBool returns gorm.ErrRecordNotFound when the key has never been set.
func (r *settingRepoImpl) GetBool(ctx context.Context, key string) (bool, error) {
	var setting model.Setting
	err := r.db.WithContext(ctx).
		Where("setting_key = ?", key).
		First(&setting).Error
	if err != nil {
		return false, err
	}

	return strconv.ParseBool(setting.Value)
}

func (r *settingRepoImpl) SetBool(ctx context.Context, key string, value bool) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      strconv.FormatBool(value),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&model.Setting{Key: key, Value: strconv.FormatBool(value)}).Error
}

func (r *settingRepoImpl) SeedDefaults(ctx context.Context) error {
	settings := []model.Setting{
		{Key: model.SettingPhonePeEnabled, Value: "true"},
		{Key: model.SettingCODEnabled, Value: "true"},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error
}
