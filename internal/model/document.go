package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document lifecycle statuses
const (
	DocumentDraft    = "draft"
	DocumentInReview = "in_review"
	DocumentApproved = "approved"
	DocumentObsolete = "obsolete"
)

// Document is a controlled QMS document (procedure, work instruction, form...)
type Document struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	DocNumber     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"doc_number"`
	Title         string         `gorm:"type:varchar(255);not null" json:"title"`
	DocType       string         `gorm:"type:varchar(50);not null;index" json:"doc_type"` // procedure, work_instruction, form, record, manual
	Revision      string         `gorm:"type:varchar(20);default:'A'" json:"revision"`
	Status        string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	EffectiveDate *time.Time     `json:"effective_date"`
	ReviewDate    *time.Time     `json:"review_date"`
	OwnerID       *uuid.UUID     `gorm:"type:uuid;index" json:"owner_id"`
	Owner         *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Tags []Tag `gorm:"many2many:document_tags;" json:"tags,omitempty"`
}
