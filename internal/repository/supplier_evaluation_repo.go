package repository

import (
	"context"
	"errors"

	"qms/internal/model"

	"gorm.io/gorm"
)

// EvaluationFilter narrows FindAll results; zero values mean "no filter"
type EvaluationFilter struct {
	SupplierID       uint
	ComplianceStatus string
}

// SupplierEvaluationRepository defines data access for supplier evaluations
type SupplierEvaluationRepository interface {
	Create(ctx context.Context, eval *model.SupplierEvaluation) error
	FindByID(ctx context.Context, id uint) (*model.SupplierEvaluation, error)
	FindAll(ctx context.Context, filter EvaluationFilter, page, limit int) ([]model.SupplierEvaluation, int64, error)
	UpdateStatus(ctx context.Context, id uint, complianceStatus string) error
}

type supplierEvaluationRepository struct {
	db *gorm.DB
}

func NewSupplierEvaluationRepository(db *gorm.DB) SupplierEvaluationRepository {
	return &supplierEvaluationRepository{db: db}
}

func (r *supplierEvaluationRepository) Create(ctx context.Context, eval *model.SupplierEvaluation) error {
	return GetDB(ctx, r.db).Create(eval).Error
}

// FindByID returns (nil, nil) when no row matches; callers treat absence as a
// normal outcome, not an error.
func (r *supplierEvaluationRepository) FindByID(ctx context.Context, id uint) (*model.SupplierEvaluation, error) {
	var eval model.SupplierEvaluation
	err := GetDB(ctx, r.db).First(&eval, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &eval, nil
}

func (r *supplierEvaluationRepository) FindAll(ctx context.Context, filter EvaluationFilter, page, limit int) ([]model.SupplierEvaluation, int64, error) {
	var evals []model.SupplierEvaluation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SupplierEvaluation{})
	if filter.SupplierID != 0 {
		db = db.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.ComplianceStatus != "" {
		db = db.Where("compliance_status = ?", filter.ComplianceStatus)
	}

	// Total reflects a dedicated count query over the same filters
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&evals).Error; err != nil {
		return nil, 0, err
	}

	return evals, total, nil
}

func (r *supplierEvaluationRepository) UpdateStatus(ctx context.Context, id uint, complianceStatus string) error {
	return GetDB(ctx, r.db).Model(&model.SupplierEvaluation{}).
		Where("id = ?", id).
		Update("compliance_status", complianceStatus).Error
}
