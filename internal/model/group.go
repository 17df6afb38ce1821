package model

import (
	"time"

	"github.com/google/uuid"
)

// Group is a collaborative container users and documents are assigned to.
// Deactivated via Active=false rather than deleted so membership history survives.
type Group struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Active      bool      `gorm:"default:true;index" json:"active"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GroupMember is the user membership join row, with audit stamps of who added whom
type GroupMember struct {
	ID      uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID uint       `gorm:"not null;index:idx_group_user,unique" json:"group_id"`
	UserID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_group_user,unique" json:"user_id"`
	User    User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AddedAt time.Time  `gorm:"autoCreateTime" json:"added_at"`
	AddedBy *uuid.UUID `gorm:"type:uuid" json:"added_by"`
}

// GroupDocument assigns a document to a group, with audit stamps
type GroupDocument struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID    uint       `gorm:"not null;index:idx_group_doc,unique" json:"group_id"`
	DocumentID uint       `gorm:"not null;index:idx_group_doc,unique" json:"document_id"`
	AssignedAt time.Time  `gorm:"autoCreateTime" json:"assigned_at"`
	AssignedBy *uuid.UUID `gorm:"type:uuid" json:"assigned_by"`
}
