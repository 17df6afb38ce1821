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

type CreateAuditRequest struct {
	AuditNumber   string     `json:"audit_number" binding:"required"`
	Title         string     `json:"title" binding:"required"`
	AuditType     string     `json:"audit_type" binding:"required,oneof=internal external supplier"`
	Scope         string     `json:"scope"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	SupplierID    *uint      `json:"supplier_id"`
}

type UpdateAuditRequest struct {
	Title         string     `json:"title" binding:"required"`
	Scope         string     `json:"scope"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

type ChecklistItemRequest struct {
	Requirement string `json:"requirement"`
	Question    string `json:"question" binding:"required"`
}

type AnswerChecklistItemRequest struct {
	Result string `json:"result" binding:"required,oneof=conforming nonconforming observation not_applicable"`
	Notes  string `json:"notes"`
	// Filled only for nonconforming results that should raise an NCR
	RaiseNCR    bool   `json:"raise_ncr"`
	NCRSeverity string `json:"ncr_severity" binding:"omitempty,oneof=minor major critical"`
}

type AuditFilter struct {
	AuditType  string
	Status     string
	SupplierID *uint
}

var auditTransitions = map[string][]string{
	model.AuditPlanned:    {model.AuditInProgress},
	model.AuditInProgress: {model.AuditCompleted},
	model.AuditCompleted:  {model.AuditClosed},
	model.AuditClosed:     {},
}

// --- Interface ---

type AuditService interface {
	ListAudits(ctx context.Context, filter AuditFilter, page, limit int) ([]model.Audit, int64, error)
	GetAudit(ctx context.Context, id uint) (*model.Audit, error)
	CreateAudit(ctx context.Context, req CreateAuditRequest, actor *uuid.UUID) (*model.Audit, error)
	UpdateAudit(ctx context.Context, id uint, req UpdateAuditRequest) (*model.Audit, error)
	DeleteAudit(ctx context.Context, id uint) error

	AddChecklistItems(ctx context.Context, auditID uint, items []ChecklistItemRequest) (*model.Audit, error)
	AnswerChecklistItem(ctx context.Context, auditID, itemID uint, req AnswerChecklistItemRequest, actor *uuid.UUID) (*model.ChecklistItem, error)

	StartAudit(ctx context.Context, id uint, actor *uuid.UUID) (*model.Audit, error)
	CompleteAudit(ctx context.Context, id uint, actor *uuid.UUID) (*model.Audit, error)
	CloseAudit(ctx context.Context, id uint, actor *uuid.UUID) (*model.Audit, error)
}

type auditService struct {
	db  *gorm.DB
	hub *notification.Hub
}

func NewAuditService(db *gorm.DB, hub *notification.Hub) AuditService {
	return &auditService{db: db, hub: hub}
}

// --- Implementation ---

func (s *auditService) ListAudits(ctx context.Context, filter AuditFilter, page, limit int) ([]model.Audit, int64, error) {
	var audits []model.Audit
	var total int64

	db := s.db.WithContext(ctx).Model(&model.Audit{})
	if filter.AuditType != "" {
		db = db.Where("audit_type = ?", filter.AuditType)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != nil {
		db = db.Where("supplier_id = ?", *filter.SupplierID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audits: %w", err)
	}

	offset := (page - 1) * limit
	if err := db.Preload("LeadAuditor").Order("scheduled_date DESC NULLS LAST, id DESC").Offset(offset).Limit(limit).Find(&audits).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audits: %w", err)
	}
	return audits, total, nil
}

func (s *auditService) GetAudit(ctx context.Context, id uint) (*model.Audit, error) {
	var audit model.Audit
	err := s.db.WithContext(ctx).
		Preload("LeadAuditor").
		Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		First(&audit, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("audit not found: %w", err)
	}
	return &audit, nil
}

func (s *auditService) CreateAudit(ctx context.Context, req CreateAuditRequest, actor *uuid.UUID) (*model.Audit, error) {
	if req.AuditType == model.AuditSupplier && req.SupplierID == nil {
		return nil, fmt.Errorf("supplier audits require a supplier_id")
	}
	if req.SupplierID != nil {
		var supplier model.Supplier
		if err := s.db.WithContext(ctx).First(&supplier, "id = ?", *req.SupplierID).Error; err != nil {
			return nil, fmt.Errorf("supplier not found: %w", err)
		}
	}

	audit := model.Audit{
		AuditNumber:   req.AuditNumber,
		Title:         req.Title,
		AuditType:     req.AuditType,
		Scope:         req.Scope,
		Status:        model.AuditPlanned,
		ScheduledDate: req.ScheduledDate,
		LeadAuditorID: actor,
		SupplierID:    req.SupplierID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to create audit: %w", err)
		}
		return logAction(tx, actor, model.ActionCreateAudit, fmt.Sprintf("%d", audit.ID), audit.Title, map[string]any{
			"audit_number": audit.AuditNumber,
			"audit_type":   audit.AuditType,
		})
	})
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (s *auditService) UpdateAudit(ctx context.Context, id uint, req UpdateAuditRequest) (*model.Audit, error) {
	audit, err := s.GetAudit(ctx, id)
	if err != nil {
		return nil, err
	}
	if audit.Status == model.AuditClosed {
		return nil, fmt.Errorf("audit '%s' is closed and cannot be edited", audit.AuditNumber)
	}

	audit.Title = req.Title
	audit.Scope = req.Scope
	audit.ScheduledDate = req.ScheduledDate
	if err := s.db.WithContext(ctx).Save(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to update audit: %w", err)
	}
	return audit, nil
}

func (s *auditService) DeleteAudit(ctx context.Context, id uint) error {
	audit, err := s.GetAudit(ctx, id)
	if err != nil {
		return err
	}
	if audit.Status != model.AuditPlanned {
		return fmt.Errorf("only planned audits can be deleted")
	}
	return s.db.WithContext(ctx).Select("ChecklistItems").Delete(audit).Error
}

// AddChecklistItems appends questions to a planned audit, continuing the
// sequence from the current highest position.
func (s *auditService) AddChecklistItems(ctx context.Context, auditID uint, items []ChecklistItemRequest) (*model.Audit, error) {
	audit, err := s.GetAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if audit.Status != model.AuditPlanned {
		return nil, fmt.Errorf("checklist can only be edited while the audit is planned")
	}
	if len(items) == 0 {
		return audit, nil
	}

	next := 1
	for _, item := range audit.ChecklistItems {
		if item.Sequence >= next {
			next = item.Sequence + 1
		}
	}

	rows := make([]model.ChecklistItem, 0, len(items))
	for i, item := range items {
		rows = append(rows, model.ChecklistItem{
			AuditID:     auditID,
			Sequence:    next + i,
			Requirement: item.Requirement,
			Question:    item.Question,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to add checklist items: %w", err)
	}
	return s.GetAudit(ctx, auditID)
}

// AnswerChecklistItem records a result for one question. Answers are only
// accepted while the audit is in progress; a nonconforming result may raise
// an NCR linked back to the item.
func (s *auditService) AnswerChecklistItem(ctx context.Context, auditID, itemID uint, req AnswerChecklistItemRequest, actor *uuid.UUID) (*model.ChecklistItem, error) {
	audit, err := s.GetAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if audit.Status != model.AuditInProgress {
		return nil, fmt.Errorf("checklist answers are only accepted while the audit is in progress")
	}

	var item model.ChecklistItem
	if err := s.db.WithContext(ctx).First(&item, "id = ? AND audit_id = ?", itemID, auditID).Error; err != nil {
		return nil, fmt.Errorf("checklist item not found: %w", err)
	}

	if req.RaiseNCR && req.Result != model.ResultNonconforming {
		return nil, fmt.Errorf("only nonconforming results can raise an NCR")
	}

	now := time.Now()
	item.Result = req.Result
	item.Notes = req.Notes
	item.AnsweredBy = actor
	item.AnsweredAt = &now

	var raised *model.NCR
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.RaiseNCR && item.NCRID == nil {
			severity := req.NCRSeverity
			if severity == "" {
				severity = model.SeverityMinor
			}
			ncr := model.NCR{
				NCRNumber:   fmt.Sprintf("NCR-%s-%d-%d", audit.AuditNumber, item.Sequence, now.Unix()),
				Title:       fmt.Sprintf("Nonconformity found in audit %s, item %d", audit.AuditNumber, item.Sequence),
				Description: req.Notes,
				Source:      model.SourceAudit,
				Severity:    severity,
				Status:      model.NCROpen,
				AuditID:     &auditID,
				SupplierID:  audit.SupplierID,
				ReportedBy:  actor,
			}
			if err := tx.Create(&ncr).Error; err != nil {
				return fmt.Errorf("failed to raise NCR: %w", err)
			}
			item.NCRID = &ncr.ID
			raised = &ncr

			if err := logAction(tx, actor, model.ActionCreateNCR, fmt.Sprintf("%d", ncr.ID), ncr.Title, map[string]any{
				"audit_id": auditID,
				"severity": severity,
			}); err != nil {
				return err
			}
		}

		if err := tx.Save(&item).Error; err != nil {
			return fmt.Errorf("failed to record answer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil && raised != nil {
		s.hub.Notify(notification.Event{
			Event:      "ncr.raised",
			Message:    fmt.Sprintf("NCR %s raised from audit %s", raised.NCRNumber, audit.AuditNumber),
			Severity:   "warning",
			EntityType: "ncr",
			EntityID:   raised.ID,
		})
	}
	return &item, nil
}

func (s *auditService) StartAudit(ctx context.Context, id uint, actor *uuid.UUID) (*model.Audit, error) {
	return s.moveStatus(ctx, id, model.AuditInProgress, actor)
}

// CompleteAudit requires every checklist item to carry a result.
func (s *auditService) CompleteAudit(ctx context.Context, id uint, actor *uuid.UUID) (*model.Audit, error) {
	audit, err := s.GetAudit(ctx, id)
	if err != nil {
		return nil, err
	}

	unanswered := 0
	for _, item := range audit.ChecklistItems {
		if item.Result == "" {
			unanswered++
		}
	}
	if unanswered > 0 {
		return nil, fmt.Errorf("cannot complete audit: %d checklist item(s) unanswered", unanswered)
	}

	return s.moveStatus(ctx, id, model.AuditCompleted, actor)
}

func (s *auditService) CloseAudit(ctx context.Context, id uint, actor *uuid.UUID) (*model.Audit, error) {
	return s.moveStatus(ctx, id, model.AuditClosed, actor)
}

func (s *auditService) moveStatus(ctx context.Context, id uint, target string, actor *uuid.UUID) (*model.Audit, error) {
	audit, err := s.GetAudit(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(auditTransitions, audit.Status, target) {
		return nil, fmt.Errorf("invalid status transition from '%s' to '%s'", audit.Status, target)
	}

	now := time.Now()
	previous := audit.Status
	audit.Status = target
	switch target {
	case model.AuditInProgress:
		audit.StartedAt = &now
	case model.AuditCompleted:
		audit.CompletedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(audit).Error; err != nil {
			return fmt.Errorf("failed to change audit status: %w", err)
		}
		if target == model.AuditCompleted {
			return logAction(tx, actor, model.ActionCompleteAudit, fmt.Sprintf("%d", audit.ID), audit.Title, map[string]any{
				"from": previous,
				"to":   target,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audit, nil
}
