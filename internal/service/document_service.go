package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qms/internal/model"
	"qms/internal/notification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateDocumentRequest struct {
	DocNumber     string     `json:"doc_number" binding:"required"`
	Title         string     `json:"title" binding:"required"`
	DocType       string     `json:"doc_type" binding:"required,oneof=procedure work_instruction form record manual"`
	Revision      string     `json:"revision"`
	EffectiveDate *time.Time `json:"effective_date"`
	ReviewDate    *time.Time `json:"review_date"`
}

type UpdateDocumentRequest struct {
	Title         string     `json:"title" binding:"required"`
	DocType       string     `json:"doc_type" binding:"required,oneof=procedure work_instruction form record manual"`
	Revision      string     `json:"revision"`
	EffectiveDate *time.Time `json:"effective_date"`
	ReviewDate    *time.Time `json:"review_date"`
}

type DocumentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft in_review approved obsolete"`
}

type DocumentFilter struct {
	DocType string
	Status  string
	Search  string
}

// Allowed lifecycle moves. in_review may fall back to draft on rejection.
var documentTransitions = map[string][]string{
	model.DocumentDraft:    {model.DocumentInReview},
	model.DocumentInReview: {model.DocumentApproved, model.DocumentDraft},
	model.DocumentApproved: {model.DocumentObsolete},
	model.DocumentObsolete: {},
}

// --- Interface ---

type DocumentService interface {
	ListDocuments(ctx context.Context, filter DocumentFilter, page, limit int) ([]model.Document, int64, error)
	GetDocument(ctx context.Context, id uint) (*model.Document, error)
	CreateDocument(ctx context.Context, req CreateDocumentRequest, actor *uuid.UUID) (*model.Document, error)
	UpdateDocument(ctx context.Context, id uint, req UpdateDocumentRequest, actor *uuid.UUID) (*model.Document, error)
	ChangeStatus(ctx context.Context, id uint, target string, actor *uuid.UUID) (*model.Document, error)
	DeleteDocument(ctx context.Context, id uint) error
}

type documentService struct {
	db  *gorm.DB
	hub *notification.Hub
}

func NewDocumentService(db *gorm.DB, hub *notification.Hub) DocumentService {
	return &documentService{db: db, hub: hub}
}

// --- Implementation ---

func (s *documentService) ListDocuments(ctx context.Context, filter DocumentFilter, page, limit int) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := s.db.WithContext(ctx).Model(&model.Document{})
	if filter.DocType != "" {
		db = db.Where("doc_type = ?", filter.DocType)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("doc_number ILIKE ? OR title ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	offset := (page - 1) * limit
	if err := db.Preload("Owner").Preload("Tags").Order("doc_number ASC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return docs, total, nil
}

func (s *documentService) GetDocument(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document
	if err := s.db.WithContext(ctx).Preload("Owner").Preload("Tags").First(&doc, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return &doc, nil
}

func (s *documentService) CreateDocument(ctx context.Context, req CreateDocumentRequest, actor *uuid.UUID) (*model.Document, error) {
	doc := model.Document{
		DocNumber:     req.DocNumber,
		Title:         req.Title,
		DocType:       req.DocType,
		Revision:      req.Revision,
		Status:        model.DocumentDraft,
		EffectiveDate: req.EffectiveDate,
		ReviewDate:    req.ReviewDate,
		OwnerID:       actor,
	}
	if doc.Revision == "" {
		doc.Revision = "A"
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		return logAction(tx, actor, model.ActionCreateDocument, fmt.Sprintf("%d", doc.ID), doc.Title, map[string]any{
			"doc_number": doc.DocNumber,
			"doc_type":   doc.DocType,
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *documentService) UpdateDocument(ctx context.Context, id uint, req UpdateDocumentRequest, actor *uuid.UUID) (*model.Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status == model.DocumentObsolete {
		return nil, fmt.Errorf("document '%s' is obsolete and cannot be edited", doc.DocNumber)
	}

	doc.Title = req.Title
	doc.DocType = req.DocType
	if req.Revision != "" {
		doc.Revision = req.Revision
	}
	doc.EffectiveDate = req.EffectiveDate
	doc.ReviewDate = req.ReviewDate

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(doc).Error; err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return logAction(tx, actor, model.ActionUpdateDocument, fmt.Sprintf("%d", doc.ID), doc.Title, nil)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ChangeStatus enforces the draft -> in_review -> approved -> obsolete lifecycle.
func (s *documentService) ChangeStatus(ctx context.Context, id uint, target string, actor *uuid.UUID) (*model.Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(documentTransitions, doc.Status, target) {
		return nil, fmt.Errorf("invalid status transition from '%s' to '%s'", doc.Status, target)
	}

	previous := doc.Status
	doc.Status = target
	if target == model.DocumentApproved && doc.EffectiveDate == nil {
		now := time.Now()
		doc.EffectiveDate = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(doc).Error; err != nil {
			return fmt.Errorf("failed to change document status: %w", err)
		}
		return logAction(tx, actor, model.ActionDocumentStatus, fmt.Sprintf("%d", doc.ID), doc.Title, map[string]any{
			"from": previous,
			"to":   target,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil && target == model.DocumentApproved {
		s.hub.Notify(notification.Event{
			Event:      "document.approved",
			Message:    fmt.Sprintf("Document %s rev %s approved", doc.DocNumber, doc.Revision),
			Severity:   "info",
			EntityType: "document",
			EntityID:   doc.ID,
		})
	}
	return doc, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, id uint) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == model.DocumentApproved {
		return fmt.Errorf("approved document '%s' must be made obsolete before deletion", doc.DocNumber)
	}
	return s.db.WithContext(ctx).Delete(doc).Error
}

// --- Helpers ---

func transitionAllowed(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// logAction writes one activity-trail row inside the caller's transaction.
func logAction(tx *gorm.DB, actor *uuid.UUID, action, entityID, entityName string, details map[string]any) error {
	entry := model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode log details: %w", err)
		}
		entry.Details = string(payload)
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}
