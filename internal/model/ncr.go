package model

import (
	"time"

	"github.com/google/uuid"
)

// NCR lifecycle statuses
const (
	NCROpen          = "open"
	NCRUnderReview   = "under_review"
	NCRDispositioned = "dispositioned"
	NCRClosed        = "closed"
)

// NCR severities
const (
	SeverityMinor    = "minor"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
)

// NCR dispositions
const (
	DispositionUseAsIs  = "use_as_is"
	DispositionRework   = "rework"
	DispositionRepair   = "repair"
	DispositionScrap    = "scrap"
	DispositionReturn   = "return_to_supplier"
)

// NCR sources
const (
	SourceAudit      = "audit"
	SourceProduction = "production"
	SourceCustomer   = "customer"
	SourceSupplier   = "supplier"
)

// NCR is a non-conformance report moving through review and disposition
type NCR struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	NCRNumber   string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"ncr_number"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Source      string     `gorm:"type:varchar(20);not null;index" json:"source"`
	Severity    string     `gorm:"type:varchar(20);not null;index" json:"severity"`
	Status      string     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Disposition string     `gorm:"type:varchar(30)" json:"disposition"` // required before closing
	AuditID     *uint      `gorm:"index" json:"audit_id"`
	SupplierID  *uint      `gorm:"index" json:"supplier_id"`
	ReportedBy  *uuid.UUID `gorm:"type:uuid" json:"reported_by"`
	AssignedTo  *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to"`
	ClosedAt    *time.Time `json:"closed_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
