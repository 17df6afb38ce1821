package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qms/internal/model"
	"qms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Weighted contribution of each rating to the overall score
var (
	weightQuality  = decimal.NewFromFloat(0.5)
	weightDelivery = decimal.NewFromFloat(0.3)
	weightService  = decimal.NewFromFloat(0.2)
)

// Evaluations scoring at or above this threshold are Compliant
var complianceThreshold = decimal.NewFromFloat(3.0)

// --- DTOs ---

type CreateSupplierRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	Status       string `json:"status" binding:"omitempty,oneof=approved conditional suspended"`
}

type CreateEvaluationRequest struct {
	SupplierID       uint            `json:"supplier_id" binding:"required"`
	EvaluationNumber string          `json:"evaluation_number" binding:"required"`
	PeriodStart      time.Time       `json:"period_start" binding:"required"`
	PeriodEnd        time.Time       `json:"period_end" binding:"required"`
	QualityRating    int             `json:"quality_rating" binding:"required,min=1,max=5"`
	DeliveryRating   int             `json:"delivery_rating" binding:"required,min=1,max=5"`
	ServiceRating    int             `json:"service_rating" binding:"required,min=1,max=5"`
	Criteria         json.RawMessage `json:"criteria"`
	Comments         string          `json:"comments"`
}

type EvaluationListFilter struct {
	SupplierID       uint
	ComplianceStatus string
	Page             int
	Limit            int
}

type SupplierStatistics struct {
	SupplierID        uint    `json:"supplier_id"`
	SupplierName      string  `json:"supplier_name"`
	EvaluationCount   int64   `json:"evaluation_count"`
	AverageScore      float64 `json:"average_score"`
	CompliantCount    int64   `json:"compliant_count"`
	NonCompliantCount int64   `json:"non_compliant_count"`
}

// --- Interface ---

type SupplierService interface {
	ListSuppliers(ctx context.Context, page, limit int) ([]model.Supplier, int64, error)
	GetSupplier(ctx context.Context, id uint) (*model.Supplier, error)
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id uint, req CreateSupplierRequest) (*model.Supplier, error)

	CreateEvaluation(ctx context.Context, req CreateEvaluationRequest, actor *uuid.UUID) (*model.SupplierEvaluation, error)
	GetEvaluation(ctx context.Context, id uint) (*model.SupplierEvaluation, error)
	ListEvaluations(ctx context.Context, filter EvaluationListFilter) ([]model.SupplierEvaluation, int64, error)
	UpdateEvaluationStatus(ctx context.Context, id uint, complianceStatus string) (*model.SupplierEvaluation, error)
	GetStatistics(ctx context.Context) ([]SupplierStatistics, error)
}

type supplierService struct {
	db    *gorm.DB
	evals repository.SupplierEvaluationRepository
	audit repository.AuditLogRepository
	tx    repository.TransactionManager
}

func NewSupplierService(db *gorm.DB, evals repository.SupplierEvaluationRepository, audit repository.AuditLogRepository, tx repository.TransactionManager) SupplierService {
	return &supplierService{db: db, evals: evals, audit: audit, tx: tx}
}

// --- Supplier CRUD ---

func (s *supplierService) ListSuppliers(ctx context.Context, page, limit int) ([]model.Supplier, int64, error) {
	var suppliers []model.Supplier
	var total int64

	if err := s.db.WithContext(ctx).Model(&model.Supplier{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count suppliers: %w", err)
	}

	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Order("name ASC").Offset(offset).Limit(limit).Find(&suppliers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch suppliers: %w", err)
	}
	return suppliers, total, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id uint) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("supplier not found: %w", err)
	}
	return &supplier, nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*model.Supplier, error) {
	supplier := model.Supplier{
		Code:         req.Code,
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Status:       model.SupplierConditional,
	}
	if req.Status != "" {
		supplier.Status = req.Status
	}
	if err := s.db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return &supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id uint, req CreateSupplierRequest) (*model.Supplier, error) {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Code = req.Code
	supplier.Name = req.Name
	supplier.ContactName = req.ContactName
	supplier.ContactEmail = req.ContactEmail
	if req.Status != "" {
		supplier.Status = req.Status
	}
	if err := s.db.WithContext(ctx).Save(supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

// --- Evaluations ---

func (s *supplierService) CreateEvaluation(ctx context.Context, req CreateEvaluationRequest, actor *uuid.UUID) (*model.SupplierEvaluation, error) {
	if _, err := s.GetSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, fmt.Errorf("period_end must not precede period_start")
	}

	score := WeightedScore(req.QualityRating, req.DeliveryRating, req.ServiceRating)

	eval := model.SupplierEvaluation{
		SupplierID:       req.SupplierID,
		EvaluationNumber: req.EvaluationNumber,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		QualityRating:    req.QualityRating,
		DeliveryRating:   req.DeliveryRating,
		ServiceRating:    req.ServiceRating,
		OverallScore:     score,
		ComplianceStatus: complianceFor(score),
		Comments:         req.Comments,
		EvaluatedBy:      actor,
	}
	if len(req.Criteria) > 0 {
		eval.Criteria = []byte(req.Criteria)
	}

	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.evals.Create(txCtx, &eval); err != nil {
			return fmt.Errorf("failed to create evaluation: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"supplier_id":   req.SupplierID,
			"overall_score": score.String(),
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionCreateEval,
			EntityID:   fmt.Sprintf("%d", eval.ID),
			EntityName: req.EvaluationNumber,
			Details:    string(details),
		})
	}); err != nil {
		return nil, err
	}

	return &eval, nil
}

func (s *supplierService) GetEvaluation(ctx context.Context, id uint) (*model.SupplierEvaluation, error) {
	eval, err := s.evals.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch evaluation: %w", err)
	}
	if eval == nil {
		return nil, fmt.Errorf("evaluation %d not found", id)
	}
	return eval, nil
}

func (s *supplierService) ListEvaluations(ctx context.Context, filter EvaluationListFilter) ([]model.SupplierEvaluation, int64, error) {
	return s.evals.FindAll(ctx, repository.EvaluationFilter{
		SupplierID:       filter.SupplierID,
		ComplianceStatus: filter.ComplianceStatus,
	}, filter.Page, filter.Limit)
}

func (s *supplierService) UpdateEvaluationStatus(ctx context.Context, id uint, complianceStatus string) (*model.SupplierEvaluation, error) {
	switch complianceStatus {
	case model.ComplianceCompliant, model.ComplianceNonCompliant, model.CompliancePending:
	default:
		return nil, fmt.Errorf("invalid compliance status '%s'", complianceStatus)
	}

	if _, err := s.GetEvaluation(ctx, id); err != nil {
		return nil, err
	}
	if err := s.evals.UpdateStatus(ctx, id, complianceStatus); err != nil {
		return nil, fmt.Errorf("failed to update evaluation status: %w", err)
	}
	return s.GetEvaluation(ctx, id)
}

// GetStatistics aggregates per-supplier evaluation figures
func (s *supplierService) GetStatistics(ctx context.Context) ([]SupplierStatistics, error) {
	var stats []SupplierStatistics
	err := s.db.WithContext(ctx).Table("supplier_evaluations").
		Select(`suppliers.id as supplier_id, suppliers.name as supplier_name,
			COUNT(supplier_evaluations.id) as evaluation_count,
			AVG(supplier_evaluations.overall_score) as average_score,
			COUNT(*) FILTER (WHERE supplier_evaluations.compliance_status = ?) as compliant_count,
			COUNT(*) FILTER (WHERE supplier_evaluations.compliance_status = ?) as non_compliant_count`,
			model.ComplianceCompliant, model.ComplianceNonCompliant).
		Joins("JOIN suppliers ON suppliers.id = supplier_evaluations.supplier_id").
		Group("suppliers.id, suppliers.name").
		Order("suppliers.name ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute supplier statistics: %w", err)
	}
	return stats, nil
}

// --- Helpers ---

// WeightedScore computes the 50/30/20 quality/delivery/service weighted average
func WeightedScore(quality, delivery, service int) decimal.Decimal {
	return decimal.NewFromInt(int64(quality)).Mul(weightQuality).
		Add(decimal.NewFromInt(int64(delivery)).Mul(weightDelivery)).
		Add(decimal.NewFromInt(int64(service)).Mul(weightService)).
		Round(2)
}

func complianceFor(score decimal.Decimal) string {
	if score.GreaterThanOrEqual(complianceThreshold) {
		return model.ComplianceCompliant
	}
	return model.ComplianceNonCompliant
}
