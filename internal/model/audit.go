package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit lifecycle statuses
const (
	AuditPlanned    = "planned"
	AuditInProgress = "in_progress"
	AuditCompleted  = "completed"
	AuditClosed     = "closed"
)

// Audit types
const (
	AuditInternal = "internal"
	AuditExternal = "external"
	AuditSupplier = "supplier"
)

// Checklist item results
const (
	ResultConforming    = "conforming"
	ResultNonconforming = "nonconforming"
	ResultObservation   = "observation"
	ResultNotApplicable = "not_applicable"
)

// Audit is a quality audit engagement with an executable checklist
type Audit struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	AuditNumber   string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"audit_number"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	AuditType     string     `gorm:"type:varchar(20);not null;index" json:"audit_type"`
	Scope         string     `gorm:"type:text" json:"scope"`
	Status        string     `gorm:"type:varchar(20);not null;default:'planned';index" json:"status"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	LeadAuditorID *uuid.UUID `gorm:"type:uuid;index" json:"lead_auditor_id"`
	LeadAuditor   *User      `gorm:"foreignKey:LeadAuditorID" json:"lead_auditor,omitempty"`
	SupplierID    *uint      `gorm:"index" json:"supplier_id"` // set for supplier audits
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	ChecklistItems []ChecklistItem `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE" json:"checklist_items,omitempty"`
}

// ChecklistItem is one question of an audit checklist, answered during execution
type ChecklistItem struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	AuditID     uint       `gorm:"not null;index" json:"audit_id"`
	Sequence    int        `gorm:"not null" json:"sequence"`
	Requirement string     `gorm:"type:varchar(100)" json:"requirement"` // clause reference, e.g. "ISO 9001 7.1.5"
	Question    string     `gorm:"type:text;not null" json:"question"`
	Result      string     `gorm:"type:varchar(20)" json:"result"` // empty until answered
	Notes       string     `gorm:"type:text" json:"notes"`
	AnsweredBy  *uuid.UUID `gorm:"type:uuid" json:"answered_by"`
	AnsweredAt  *time.Time `json:"answered_at"`
	NCRID       *uint      `json:"ncr_id"` // set when a nonconformity raised an NCR
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
