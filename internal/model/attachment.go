package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed set of domain objects attachments can reference.
// Free-form strings are rejected at the service layer.
type EntityType string

const (
	EntityAudit     EntityType = "audit"
	EntityNCR       EntityType = "ncr"
	EntityCAPA      EntityType = "capa"
	EntityEquipment EntityType = "equipment"
	EntityDocument  EntityType = "document"
	EntitySupplier  EntityType = "supplier"
	EntityTraining  EntityType = "training"
)

// KnownEntityTypes lists every valid attachment target kind
func KnownEntityTypes() []EntityType {
	return []EntityType{
		EntityAudit, EntityNCR, EntityCAPA, EntityEquipment,
		EntityDocument, EntitySupplier, EntityTraining,
	}
}

// Valid reports whether t belongs to the known vocabulary
func (t EntityType) Valid() bool {
	for _, known := range KnownEntityTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Attachment associates an uploaded file to a domain object via (EntityType, EntityID).
// The pair is a weak reference; existence of the target is checked before insert.
type Attachment struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName       string     `gorm:"type:varchar(255);not null" json:"file_name"`
	StoredFileName string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"stored_file_name"`
	FilePath       string     `gorm:"type:varchar(512);not null" json:"file_path"`
	FileSize       int64      `gorm:"not null" json:"file_size"`
	MimeType       string     `gorm:"type:varchar(127)" json:"mime_type"`
	EntityType     EntityType `gorm:"type:varchar(20);not null;index:idx_attachment_entity" json:"entity_type"`
	EntityID       uint       `gorm:"not null;index:idx_attachment_entity" json:"entity_id"`
	Description    string     `gorm:"type:text" json:"description"`
	Category       string     `gorm:"type:varchar(50)" json:"category"`
	UploadedBy     *uuid.UUID `gorm:"type:uuid" json:"uploaded_by"`
	Active         bool       `gorm:"default:true;index" json:"active"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
