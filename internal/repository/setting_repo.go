package repository

import (
	"context"

	"qms/internal/model"

	"gorm.io/gorm"
)

// SettingRepository defines data access for system settings
type SettingRepository interface {
	List(ctx context.Context) ([]model.SystemSetting, error)
	GetByKey(ctx context.Context, key string) (*model.SystemSetting, error)
	UpdateValue(ctx context.Context, key, value string) error
	Upsert(ctx context.Context, setting *model.SystemSetting) error
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) List(ctx context.Context) ([]model.SystemSetting, error) {
	var settings []model.SystemSetting
	if err := GetDB(ctx, r.db).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingRepository) GetByKey(ctx context.Context, key string) (*model.SystemSetting, error) {
	var setting model.SystemSetting
	if err := GetDB(ctx, r.db).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepository) UpdateValue(ctx context.Context, key, value string) error {
	return GetDB(ctx, r.db).Model(&model.SystemSetting{}).
		Where("key = ?", key).
		Update("value", value).Error
}

func (r *settingRepository) Upsert(ctx context.Context, setting *model.SystemSetting) error {
	var existing model.SystemSetting
	err := GetDB(ctx, r.db).First(&existing, "key = ?", setting.Key).Error
	if err == nil {
		return nil // seeded rows keep their current value
	}
	return GetDB(ctx, r.db).Create(setting).Error
}
