package model

import (
	"time"

	"github.com/google/uuid"
)

// CAPA lifecycle statuses
const (
	CAPAOpen       = "open"
	CAPAInProgress = "in_progress"
	CAPACompleted  = "completed"
	CAPAVerified   = "verified"
	CAPAClosed     = "closed"
)

// CAPA types
const (
	CAPACorrective = "corrective"
	CAPAPreventive = "preventive"
)

// CAPA is a corrective or preventive action, optionally linked to the NCR it resolves
type CAPA struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CAPANumber         string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"capa_number"`
	CAPAType           string     `gorm:"type:varchar(20);not null;index" json:"capa_type"`
	Title              string     `gorm:"type:varchar(255);not null" json:"title"`
	NCRID              *uint      `gorm:"index" json:"ncr_id"`
	RootCause          string     `gorm:"type:text" json:"root_cause"`
	ActionPlan         string     `gorm:"type:text" json:"action_plan"`
	Status             string     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	DueDate            *time.Time `gorm:"index" json:"due_date"`
	OwnerID            *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Owner              *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	VerifiedBy         *uuid.UUID `gorm:"type:uuid" json:"verified_by"`
	VerifiedAt         *time.Time `json:"verified_at"`
	EffectivenessNotes string     `gorm:"type:text" json:"effectiveness_notes"`
	ClosedAt           *time.Time `json:"closed_at"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
