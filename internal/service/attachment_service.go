package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"qms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Interface ---

type UploadAttachmentRequest struct {
	EntityType  string `form:"entity_type" binding:"required"`
	EntityID    uint   `form:"entity_id" binding:"required"`
	Description string `form:"description"`
	Category    string `form:"category"`
}

type AttachmentService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, req UploadAttachmentRequest, actor *uuid.UUID) (*model.Attachment, error)
	GetByID(ctx context.Context, id uint) (*model.Attachment, error)
	ListForEntity(ctx context.Context, entityType model.EntityType, entityID uint) ([]model.Attachment, error)
	Delete(ctx context.Context, id uint, actor *uuid.UUID) error
}

type attachmentService struct {
	db        *gorm.DB
	uploadDir string
}

func NewAttachmentService(db *gorm.DB, uploadDir string) AttachmentService {
	return &attachmentService{db: db, uploadDir: uploadDir}
}

// --- Implementation ---

// entityExists checks the weak (entityType, entityID) reference against the
// owning table before an attachment row is persisted.
func (s *attachmentService) entityExists(ctx context.Context, entityType model.EntityType, entityID uint) (bool, error) {
	var target interface{}
	switch entityType {
	case model.EntityAudit:
		target = &model.Audit{}
	case model.EntityNCR:
		target = &model.NCR{}
	case model.EntityCAPA:
		target = &model.CAPA{}
	case model.EntityEquipment:
		target = &model.Equipment{}
	case model.EntityDocument:
		target = &model.Document{}
	case model.EntitySupplier:
		target = &model.Supplier{}
	case model.EntityTraining:
		target = &model.TrainingCourse{}
	default:
		return false, fmt.Errorf("unknown entity type '%s'", entityType)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(target).Where("id = ?", entityID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *attachmentService) Upload(ctx context.Context, file *multipart.FileHeader, req UploadAttachmentRequest, actor *uuid.UUID) (*model.Attachment, error) {
	entityType := model.EntityType(req.EntityType)
	if !entityType.Valid() {
		return nil, fmt.Errorf("invalid entity type '%s'", req.EntityType)
	}

	exists, err := s.entityExists(ctx, entityType, req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify entity: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%s %d does not exist", entityType, req.EntityID)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	storedName := uuid.NewString() + filepath.Ext(file.Filename)
	dst := filepath.Join(s.uploadDir, storedName)
	if err := saveUploadedFile(file, dst); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	attachment := model.Attachment{
		FileName:       file.Filename,
		StoredFileName: storedName,
		FilePath:       dst,
		FileSize:       file.Size,
		MimeType:       file.Header.Get("Content-Type"),
		EntityType:     entityType,
		EntityID:       req.EntityID,
		Description:    req.Description,
		Category:       req.Category,
		UploadedBy:     actor,
		Active:         true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attachment).Error; err != nil {
			return fmt.Errorf("failed to save attachment: %w", err)
		}
		details, _ := json.Marshal(map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   req.EntityID,
			"file_name":   file.Filename,
			"file_size":   file.Size,
		})
		audit := model.AuditLog{
			UserID:     actor,
			Action:     model.ActionUploadFile,
			EntityID:   fmt.Sprintf("%d", attachment.ID),
			EntityName: file.Filename,
			Details:    string(details),
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		_ = os.Remove(dst) // undo the stored file when the row failed
		return nil, err
	}

	return &attachment, nil
}

func (s *attachmentService) GetByID(ctx context.Context, id uint) (*model.Attachment, error) {
	var attachment model.Attachment
	if err := s.db.WithContext(ctx).First(&attachment, "id = ? AND active = ?", id, true).Error; err != nil {
		return nil, fmt.Errorf("attachment not found: %w", err)
	}
	return &attachment, nil
}

func (s *attachmentService) ListForEntity(ctx context.Context, entityType model.EntityType, entityID uint) ([]model.Attachment, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("invalid entity type '%s'", entityType)
	}

	var attachments []model.Attachment
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND active = ?", entityType, entityID, true).
		Order("created_at desc").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachments: %w", err)
	}
	return attachments, nil
}

// Delete soft-deletes the row; the stored file is kept for traceability
func (s *attachmentService) Delete(ctx context.Context, id uint, actor *uuid.UUID) error {
	attachment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(attachment).Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to delete attachment: %w", err)
		}
		details, _ := json.Marshal(map[string]interface{}{
			"entity_type": attachment.EntityType,
			"entity_id":   attachment.EntityID,
			"file_name":   attachment.FileName,
		})
		audit := model.AuditLog{
			UserID:     actor,
			Action:     model.ActionDeleteFile,
			EntityID:   fmt.Sprintf("%d", attachment.ID),
			EntityName: attachment.FileName,
			Details:    string(details),
		}
		return tx.Create(&audit).Error
	})
}

func saveUploadedFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
