package service

import (
	"context"
	"fmt"
	"time"

	"qms/internal/model"
	"qms/internal/notification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateNCRRequest struct {
	NCRNumber   string `json:"ncr_number" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Source      string `json:"source" binding:"required,oneof=audit production customer supplier"`
	Severity    string `json:"severity" binding:"required,oneof=minor major critical"`
	AuditID     *uint  `json:"audit_id"`
	SupplierID  *uint  `json:"supplier_id"`
	AssignedTo  string `json:"assigned_to"`
}

type UpdateNCRRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Severity    string `json:"severity" binding:"required,oneof=minor major critical"`
	AssignedTo  string `json:"assigned_to"`
}

type DispositionRequest struct {
	Disposition string `json:"disposition" binding:"required,oneof=use_as_is rework repair scrap return_to_supplier"`
}

type SpawnCAPARequest struct {
	CAPANumber string     `json:"capa_number" binding:"required"`
	CAPAType   string     `json:"capa_type" binding:"required,oneof=corrective preventive"`
	Title      string     `json:"title" binding:"required"`
	RootCause  string     `json:"root_cause"`
	ActionPlan string     `json:"action_plan"`
	DueDate    *time.Time `json:"due_date"`
}

type NCRFilter struct {
	Status     string
	Severity   string
	Source     string
	SupplierID *uint
	AuditID    *uint
}

var ncrTransitions = map[string][]string{
	model.NCROpen:          {model.NCRUnderReview},
	model.NCRUnderReview:   {model.NCRDispositioned, model.NCROpen},
	model.NCRDispositioned: {model.NCRClosed},
	model.NCRClosed:        {},
}

// --- Interface ---

type NCRService interface {
	ListNCRs(ctx context.Context, filter NCRFilter, page, limit int) ([]model.NCR, int64, error)
	GetNCR(ctx context.Context, id uint) (*model.NCR, error)
	CreateNCR(ctx context.Context, req CreateNCRRequest, actor *uuid.UUID) (*model.NCR, error)
	UpdateNCR(ctx context.Context, id uint, req UpdateNCRRequest) (*model.NCR, error)
	ChangeStatus(ctx context.Context, id uint, target string, actor *uuid.UUID) (*model.NCR, error)
	SetDisposition(ctx context.Context, id uint, req DispositionRequest, actor *uuid.UUID) (*model.NCR, error)
	SpawnCAPA(ctx context.Context, id uint, req SpawnCAPARequest, actor *uuid.UUID) (*model.CAPA, error)
}

type ncrService struct {
	db  *gorm.DB
	hub *notification.Hub
}

func NewNCRService(db *gorm.DB, hub *notification.Hub) NCRService {
	return &ncrService{db: db, hub: hub}
}

// --- Implementation ---

func (s *ncrService) ListNCRs(ctx context.Context, filter NCRFilter, page, limit int) ([]model.NCR, int64, error) {
	var ncrs []model.NCR
	var total int64

	db := s.db.WithContext(ctx).Model(&model.NCR{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		db = db.Where("severity = ?", filter.Severity)
	}
	if filter.Source != "" {
		db = db.Where("source = ?", filter.Source)
	}
	if filter.SupplierID != nil {
		db = db.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.AuditID != nil {
		db = db.Where("audit_id = ?", *filter.AuditID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count NCRs: %w", err)
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&ncrs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch NCRs: %w", err)
	}
	return ncrs, total, nil
}

func (s *ncrService) GetNCR(ctx context.Context, id uint) (*model.NCR, error) {
	var ncr model.NCR
	if err := s.db.WithContext(ctx).First(&ncr, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("NCR not found: %w", err)
	}
	return &ncr, nil
}

func (s *ncrService) CreateNCR(ctx context.Context, req CreateNCRRequest, actor *uuid.UUID) (*model.NCR, error) {
	assigned, err := parseOptionalUserID(req.AssignedTo)
	if err != nil {
		return nil, err
	}

	ncr := model.NCR{
		NCRNumber:   req.NCRNumber,
		Title:       req.Title,
		Description: req.Description,
		Source:      req.Source,
		Severity:    req.Severity,
		Status:      model.NCROpen,
		AuditID:     req.AuditID,
		SupplierID:  req.SupplierID,
		ReportedBy:  actor,
		AssignedTo:  assigned,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ncr).Error; err != nil {
			return fmt.Errorf("failed to create NCR: %w", err)
		}
		return logAction(tx, actor, model.ActionCreateNCR, fmt.Sprintf("%d", ncr.ID), ncr.Title, map[string]any{
			"source":   ncr.Source,
			"severity": ncr.Severity,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil && ncr.Severity == model.SeverityCritical {
		s.hub.Notify(notification.Event{
			Event:      "ncr.critical",
			Message:    fmt.Sprintf("Critical NCR %s reported", ncr.NCRNumber),
			Severity:   "error",
			EntityType: "ncr",
			EntityID:   ncr.ID,
		})
	}
	return &ncr, nil
}

func (s *ncrService) UpdateNCR(ctx context.Context, id uint, req UpdateNCRRequest) (*model.NCR, error) {
	ncr, err := s.GetNCR(ctx, id)
	if err != nil {
		return nil, err
	}
	if ncr.Status == model.NCRClosed {
		return nil, fmt.Errorf("NCR '%s' is closed and cannot be edited", ncr.NCRNumber)
	}

	assigned, err := parseOptionalUserID(req.AssignedTo)
	if err != nil {
		return nil, err
	}

	ncr.Title = req.Title
	ncr.Description = req.Description
	ncr.Severity = req.Severity
	if assigned != nil {
		ncr.AssignedTo = assigned
	}

	if err := s.db.WithContext(ctx).Save(ncr).Error; err != nil {
		return nil, fmt.Errorf("failed to update NCR: %w", err)
	}
	return ncr, nil
}

// ChangeStatus walks the open -> under_review -> dispositioned -> closed path.
// Closing requires a disposition to be on record.
func (s *ncrService) ChangeStatus(ctx context.Context, id uint, target string, actor *uuid.UUID) (*model.NCR, error) {
	ncr, err := s.GetNCR(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(ncrTransitions, ncr.Status, target) {
		return nil, fmt.Errorf("invalid status transition from '%s' to '%s'", ncr.Status, target)
	}
	if target == model.NCRDispositioned && ncr.Disposition == "" {
		return nil, fmt.Errorf("a disposition must be set before marking the NCR dispositioned")
	}
	if target == model.NCRClosed && ncr.Disposition == "" {
		return nil, fmt.Errorf("NCR cannot be closed without a disposition")
	}

	previous := ncr.Status
	ncr.Status = target
	if target == model.NCRClosed {
		now := time.Now()
		ncr.ClosedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ncr).Error; err != nil {
			return fmt.Errorf("failed to change NCR status: %w", err)
		}
		return logAction(tx, actor, model.ActionNCRStatus, fmt.Sprintf("%d", ncr.ID), ncr.Title, map[string]any{
			"from": previous,
			"to":   target,
		})
	})
	if err != nil {
		return nil, err
	}
	return ncr, nil
}

// SetDisposition records the disposition decision while the NCR is under review.
func (s *ncrService) SetDisposition(ctx context.Context, id uint, req DispositionRequest, actor *uuid.UUID) (*model.NCR, error) {
	ncr, err := s.GetNCR(ctx, id)
	if err != nil {
		return nil, err
	}
	if ncr.Status != model.NCRUnderReview {
		return nil, fmt.Errorf("disposition can only be set while the NCR is under review")
	}

	ncr.Disposition = req.Disposition
	if err := s.db.WithContext(ctx).Save(ncr).Error; err != nil {
		return nil, fmt.Errorf("failed to set disposition: %w", err)
	}
	return ncr, nil
}

// SpawnCAPA creates a corrective/preventive action linked to this NCR.
func (s *ncrService) SpawnCAPA(ctx context.Context, id uint, req SpawnCAPARequest, actor *uuid.UUID) (*model.CAPA, error) {
	ncr, err := s.GetNCR(ctx, id)
	if err != nil {
		return nil, err
	}
	if ncr.Status == model.NCRClosed {
		return nil, fmt.Errorf("cannot create a CAPA for a closed NCR")
	}

	capa := model.CAPA{
		CAPANumber: req.CAPANumber,
		CAPAType:   req.CAPAType,
		Title:      req.Title,
		NCRID:      &ncr.ID,
		RootCause:  req.RootCause,
		ActionPlan: req.ActionPlan,
		Status:     model.CAPAOpen,
		DueDate:    req.DueDate,
		OwnerID:    actor,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&capa).Error; err != nil {
			return fmt.Errorf("failed to create CAPA: %w", err)
		}
		return logAction(tx, actor, model.ActionCreateCAPA, fmt.Sprintf("%d", capa.ID), capa.Title, map[string]any{
			"ncr_id":    ncr.ID,
			"capa_type": capa.CAPAType,
		})
	})
	if err != nil {
		return nil, err
	}
	return &capa, nil
}

func parseOptionalUserID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid user id '%s': %w", raw, err)
	}
	return &id, nil
}
