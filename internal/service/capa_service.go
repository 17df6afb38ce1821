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

type CreateCAPARequest struct {
	CAPANumber string     `json:"capa_number" binding:"required"`
	CAPAType   string     `json:"capa_type" binding:"required,oneof=corrective preventive"`
	Title      string     `json:"title" binding:"required"`
	NCRID      *uint      `json:"ncr_id"`
	RootCause  string     `json:"root_cause"`
	ActionPlan string     `json:"action_plan"`
	DueDate    *time.Time `json:"due_date"`
	OwnerID    string     `json:"owner_id"`
}

type UpdateCAPARequest struct {
	Title      string     `json:"title" binding:"required"`
	RootCause  string     `json:"root_cause"`
	ActionPlan string     `json:"action_plan"`
	DueDate    *time.Time `json:"due_date"`
	OwnerID    string     `json:"owner_id"`
}

type VerifyCAPARequest struct {
	EffectivenessNotes string `json:"effectiveness_notes" binding:"required"`
}

type CAPAFilter struct {
	Status   string
	CAPAType string
	NCRID    *uint
	Overdue  bool
}

var capaTransitions = map[string][]string{
	model.CAPAOpen:       {model.CAPAInProgress},
	model.CAPAInProgress: {model.CAPACompleted},
	model.CAPACompleted:  {model.CAPAVerified, model.CAPAInProgress},
	model.CAPAVerified:   {model.CAPAClosed},
	model.CAPAClosed:     {},
}

// --- Interface ---

type CAPAService interface {
	ListCAPAs(ctx context.Context, filter CAPAFilter, page, limit int) ([]model.CAPA, int64, error)
	GetCAPA(ctx context.Context, id uint) (*model.CAPA, error)
	CreateCAPA(ctx context.Context, req CreateCAPARequest, actor *uuid.UUID) (*model.CAPA, error)
	UpdateCAPA(ctx context.Context, id uint, req UpdateCAPARequest) (*model.CAPA, error)
	ChangeStatus(ctx context.Context, id uint, target string, actor *uuid.UUID) (*model.CAPA, error)
	Verify(ctx context.Context, id uint, req VerifyCAPARequest, actor *uuid.UUID) (*model.CAPA, error)
	NotifyOverdue(ctx context.Context) (int, error)
}

type capaService struct {
	db  *gorm.DB
	hub *notification.Hub
	now func() time.Time
}

func NewCAPAService(db *gorm.DB, hub *notification.Hub) CAPAService {
	return &capaService{db: db, hub: hub, now: time.Now}
}

// --- Implementation ---

func (s *capaService) ListCAPAs(ctx context.Context, filter CAPAFilter, page, limit int) ([]model.CAPA, int64, error) {
	var capas []model.CAPA
	var total int64

	db := s.db.WithContext(ctx).Model(&model.CAPA{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CAPAType != "" {
		db = db.Where("capa_type = ?", filter.CAPAType)
	}
	if filter.NCRID != nil {
		db = db.Where("ncr_id = ?", *filter.NCRID)
	}
	if filter.Overdue {
		db = db.Where("due_date < ? AND status NOT IN ?", s.now(), []string{model.CAPAVerified, model.CAPAClosed})
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count CAPAs: %w", err)
	}

	offset := (page - 1) * limit
	if err := db.Preload("Owner").Order("due_date ASC NULLS LAST, id DESC").Offset(offset).Limit(limit).Find(&capas).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch CAPAs: %w", err)
	}
	return capas, total, nil
}

func (s *capaService) GetCAPA(ctx context.Context, id uint) (*model.CAPA, error) {
	var capa model.CAPA
	if err := s.db.WithContext(ctx).Preload("Owner").First(&capa, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("CAPA not found: %w", err)
	}
	return &capa, nil
}

func (s *capaService) CreateCAPA(ctx context.Context, req CreateCAPARequest, actor *uuid.UUID) (*model.CAPA, error) {
	owner, err := parseOptionalUserID(req.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		owner = actor
	}

	if req.NCRID != nil {
		var ncr model.NCR
		if err := s.db.WithContext(ctx).First(&ncr, "id = ?", *req.NCRID).Error; err != nil {
			return nil, fmt.Errorf("NCR not found: %w", err)
		}
		if ncr.Status == model.NCRClosed {
			return nil, fmt.Errorf("cannot create a CAPA for a closed NCR")
		}
	}

	capa := model.CAPA{
		CAPANumber: req.CAPANumber,
		CAPAType:   req.CAPAType,
		Title:      req.Title,
		NCRID:      req.NCRID,
		RootCause:  req.RootCause,
		ActionPlan: req.ActionPlan,
		Status:     model.CAPAOpen,
		DueDate:    req.DueDate,
		OwnerID:    owner,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&capa).Error; err != nil {
			return fmt.Errorf("failed to create CAPA: %w", err)
		}
		return logAction(tx, actor, model.ActionCreateCAPA, fmt.Sprintf("%d", capa.ID), capa.Title, map[string]any{
			"capa_type": capa.CAPAType,
		})
	})
	if err != nil {
		return nil, err
	}
	return &capa, nil
}

func (s *capaService) UpdateCAPA(ctx context.Context, id uint, req UpdateCAPARequest) (*model.CAPA, error) {
	capa, err := s.GetCAPA(ctx, id)
	if err != nil {
		return nil, err
	}
	if capa.Status == model.CAPAClosed {
		return nil, fmt.Errorf("CAPA '%s' is closed and cannot be edited", capa.CAPANumber)
	}

	owner, err := parseOptionalUserID(req.OwnerID)
	if err != nil {
		return nil, err
	}

	capa.Title = req.Title
	capa.RootCause = req.RootCause
	capa.ActionPlan = req.ActionPlan
	capa.DueDate = req.DueDate
	if owner != nil {
		capa.OwnerID = owner
	}

	if err := s.db.WithContext(ctx).Save(capa).Error; err != nil {
		return nil, fmt.Errorf("failed to update CAPA: %w", err)
	}
	return capa, nil
}

// ChangeStatus enforces the open -> in_progress -> completed -> verified ->
// closed path. Verification happens through Verify, not here.
func (s *capaService) ChangeStatus(ctx context.Context, id uint, target string, actor *uuid.UUID) (*model.CAPA, error) {
	capa, err := s.GetCAPA(ctx, id)
	if err != nil {
		return nil, err
	}
	if target == model.CAPAVerified {
		return nil, fmt.Errorf("use the verification endpoint to verify a CAPA")
	}
	if !transitionAllowed(capaTransitions, capa.Status, target) {
		return nil, fmt.Errorf("invalid status transition from '%s' to '%s'", capa.Status, target)
	}
	if target == model.CAPAClosed && capa.VerifiedAt == nil {
		return nil, fmt.Errorf("CAPA must be verified for effectiveness before closing")
	}

	previous := capa.Status
	capa.Status = target
	if target == model.CAPAClosed {
		now := s.now()
		capa.ClosedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(capa).Error; err != nil {
			return fmt.Errorf("failed to change CAPA status: %w", err)
		}
		return logAction(tx, actor, model.ActionCAPAStatus, fmt.Sprintf("%d", capa.ID), capa.Title, map[string]any{
			"from": previous,
			"to":   target,
		})
	})
	if err != nil {
		return nil, err
	}
	return capa, nil
}

// Verify records the effectiveness check on a completed CAPA.
func (s *capaService) Verify(ctx context.Context, id uint, req VerifyCAPARequest, actor *uuid.UUID) (*model.CAPA, error) {
	capa, err := s.GetCAPA(ctx, id)
	if err != nil {
		return nil, err
	}
	if capa.Status != model.CAPACompleted {
		return nil, fmt.Errorf("only completed CAPAs can be verified")
	}

	now := s.now()
	previous := capa.Status
	capa.Status = model.CAPAVerified
	capa.VerifiedBy = actor
	capa.VerifiedAt = &now
	capa.EffectivenessNotes = req.EffectivenessNotes

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(capa).Error; err != nil {
			return fmt.Errorf("failed to verify CAPA: %w", err)
		}
		return logAction(tx, actor, model.ActionCAPAStatus, fmt.Sprintf("%d", capa.ID), capa.Title, map[string]any{
			"from": previous,
			"to":   model.CAPAVerified,
		})
	})
	if err != nil {
		return nil, err
	}
	return capa, nil
}

// NotifyOverdue pushes a hub event for every open CAPA past its due date.
// Returns the number of overdue CAPAs found.
func (s *capaService) NotifyOverdue(ctx context.Context) (int, error) {
	var capas []model.CAPA
	err := s.db.WithContext(ctx).
		Where("due_date < ? AND status NOT IN ?", s.now(), []string{model.CAPAVerified, model.CAPAClosed}).
		Find(&capas).Error
	if err != nil {
		return 0, fmt.Errorf("failed to fetch overdue CAPAs: %w", err)
	}

	if s.hub != nil {
		for _, capa := range capas {
			s.hub.Notify(notification.Event{
				Event:      "capa.overdue",
				Message:    fmt.Sprintf("CAPA %s is past its due date", capa.CAPANumber),
				Severity:   "warning",
				EntityType: "capa",
				EntityID:   capa.ID,
			})
		}
	}
	return len(capas), nil
}
