package service

import (
	"context"
	"encoding/json"
	"fmt"

	"qms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTagRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	BackgroundColor string `json:"background_color"`
	FontColor       string `json:"font_color"`
}

type TagIDsRequest struct {
	TagIDs []uint `json:"tag_ids" binding:"required"`
}

// --- Interface ---

type TagService interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	GetTag(ctx context.Context, id uint) (*model.Tag, error)
	CreateTag(ctx context.Context, req CreateTagRequest) (*model.Tag, error)
	UpdateTag(ctx context.Context, id uint, req CreateTagRequest) (*model.Tag, error)
	DeleteTag(ctx context.Context, id uint) error

	TagsForDocument(ctx context.Context, documentID uint) ([]model.Tag, error)
	AddDocumentTags(ctx context.Context, documentID uint, tagIDs []uint, actor *uuid.UUID) error
	RemoveDocumentTags(ctx context.Context, documentID uint, tagIDs []uint, actor *uuid.UUID) error
	ReplaceDocumentTags(ctx context.Context, documentID uint, tagIDs []uint, actor *uuid.UUID) error
}

type tagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) TagService {
	return &tagService{db: db}
}

// --- Implementation ---

func (s *tagService) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	return tags, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("tag not found: %w", err)
	}
	return &tag, nil
}

func (s *tagService) CreateTag(ctx context.Context, req CreateTagRequest) (*model.Tag, error) {
	tag := model.Tag{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.BackgroundColor != "" {
		tag.BackgroundColor = req.BackgroundColor
	}
	if req.FontColor != "" {
		tag.FontColor = req.FontColor
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return &tag, nil
}

func (s *tagService) UpdateTag(ctx context.Context, id uint, req CreateTagRequest) (*model.Tag, error) {
	tag, err := s.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}

	tag.Name = req.Name
	tag.Description = req.Description
	if req.BackgroundColor != "" {
		tag.BackgroundColor = req.BackgroundColor
	}
	if req.FontColor != "" {
		tag.FontColor = req.FontColor
	}
	if err := s.db.WithContext(ctx).Save(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	return tag, nil
}

// DeleteTag removes the tag and its document associations; documents never
// block tag deletion.
func (s *tagService) DeleteTag(ctx context.Context, id uint) error {
	tag, err := s.GetTag(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(tag).Association("Documents").Clear(); err != nil {
			return fmt.Errorf("failed to clear tag assignments: %w", err)
		}
		if err := tx.Delete(tag).Error; err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		return nil
	})
}

func (s *tagService) TagsForDocument(ctx context.Context, documentID uint) ([]model.Tag, error) {
	var doc model.Document
	if err := s.db.WithContext(ctx).Preload("Tags").First(&doc, "id = ?", documentID).Error; err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return doc.Tags, nil
}

func (s *tagService) AddDocumentTags(ctx context.Context, documentID uint, tagIDs []uint, actor *uuid.UUID) error {
	return s.changeDocumentTags(ctx, documentID, dedupe(tagIDs), nil, actor)
}

func (s *tagService) RemoveDocumentTags(ctx context.Context, documentID uint, tagIDs []uint, actor *uuid.UUID) error {
	return s.changeDocumentTags(ctx, documentID, nil, dedupe(tagIDs), actor)
}

// ReplaceDocumentTags diffs the selection against the current assignment and
// issues at most one batched append and one batched delete.
func (s *tagService) ReplaceDocumentTags(ctx context.Context, documentID uint, tagIDs []uint, actor *uuid.UUID) error {
	var doc model.Document
	if err := s.db.WithContext(ctx).Preload("Tags").First(&doc, "id = ?", documentID).Error; err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	current := make([]uint, 0, len(doc.Tags))
	for _, t := range doc.Tags {
		current = append(current, t.ID)
	}

	toAdd, toRemove := DiffAssignments(current, dedupe(tagIDs))
	return s.changeDocumentTags(ctx, documentID, toAdd, toRemove, actor)
}

func (s *tagService) changeDocumentTags(ctx context.Context, documentID uint, toAdd, toRemove []uint, actor *uuid.UUID) error {
	if len(toAdd) == 0 && len(toRemove) == 0 {
		return nil
	}

	var doc model.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error; err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(toAdd) > 0 {
			var tags []model.Tag
			if err := tx.Where("id IN ?", toAdd).Find(&tags).Error; err != nil {
				return fmt.Errorf("failed to fetch tags: %w", err)
			}
			if len(tags) != len(toAdd) {
				return fmt.Errorf("one or more tags do not exist")
			}
			if err := tx.Model(&doc).Association("Tags").Append(tags); err != nil {
				return fmt.Errorf("failed to add tags: %w", err)
			}
		}
		if len(toRemove) > 0 {
			tags := make([]model.Tag, 0, len(toRemove))
			for _, id := range toRemove {
				tags = append(tags, model.Tag{ID: id})
			}
			if err := tx.Model(&doc).Association("Tags").Delete(tags); err != nil {
				return fmt.Errorf("failed to remove tags: %w", err)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"document_id": documentID,
			"added":       toAdd,
			"removed":     toRemove,
		})
		audit := model.AuditLog{
			UserID:   actor,
			Action:   model.ActionTagAssignment,
			EntityID: fmt.Sprintf("%d", documentID),
			Details:  string(details),
		}
		return tx.Create(&audit).Error
	})
}
