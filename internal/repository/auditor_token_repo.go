package repository

import (
	"context"
	"errors"
	"time"

	"qms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditorTokenRepository defines data access for auditor access tokens
type AuditorTokenRepository interface {
	Create(ctx context.Context, token *model.AuditorAccessToken) error
	FindByID(ctx context.Context, id uint) (*model.AuditorAccessToken, error)
	FindByHash(ctx context.Context, hash string) (*model.AuditorAccessToken, error)
	List(ctx context.Context, page, limit int) ([]model.AuditorAccessToken, int64, error)
	ConsumeUse(ctx context.Context, id uint) (bool, error)
	Revoke(ctx context.Context, id uint, by *uuid.UUID, reason string, at time.Time) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type auditorTokenRepository struct {
	db *gorm.DB
}

func NewAuditorTokenRepository(db *gorm.DB) AuditorTokenRepository {
	return &auditorTokenRepository{db: db}
}

func (r *auditorTokenRepository) Create(ctx context.Context, token *model.AuditorAccessToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *auditorTokenRepository) FindByID(ctx context.Context, id uint) (*model.AuditorAccessToken, error) {
	var token model.AuditorAccessToken
	err := GetDB(ctx, r.db).First(&token, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *auditorTokenRepository) FindByHash(ctx context.Context, hash string) (*model.AuditorAccessToken, error) {
	var token model.AuditorAccessToken
	err := GetDB(ctx, r.db).First(&token, "token_hash = ?", hash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *auditorTokenRepository) List(ctx context.Context, page, limit int) ([]model.AuditorAccessToken, int64, error) {
	var tokens []model.AuditorAccessToken
	var total int64

	if err := GetDB(ctx, r.db).Model(&model.AuditorAccessToken{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Order("created_at desc").Offset(offset).Limit(limit).Find(&tokens).Error; err != nil {
		return nil, 0, err
	}
	return tokens, total, nil
}

// ConsumeUse atomically increments current_uses, guarded so a token can never
// exceed max_uses under concurrent requests. Returns false when no use was left.
func (r *auditorTokenRepository) ConsumeUse(ctx context.Context, id uint) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.AuditorAccessToken{}).
		Where("id = ? AND current_uses < max_uses", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *auditorTokenRepository) Revoke(ctx context.Context, id uint, by *uuid.UUID, reason string, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.AuditorAccessToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":         false,
			"revoked_at":     at,
			"revoked_by":     by,
			"revoked_reason": reason,
		}).Error
}

// DeactivateExpired sweeps rows past their expiry that are still flagged active
func (r *auditorTokenRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := GetDB(ctx, r.db).Model(&model.AuditorAccessToken{}).
		Where("active = ? AND expires_at < ?", true, now).
		Update("active", false)
	return result.RowsAffected, result.Error
}
