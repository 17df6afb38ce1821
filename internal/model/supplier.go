package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Supplier statuses
const (
	SupplierApproved    = "approved"
	SupplierConditional = "conditional"
	SupplierSuspended   = "suspended"
)

// Evaluation compliance statuses
const (
	ComplianceCompliant    = "Compliant"
	ComplianceNonCompliant = "NonCompliant"
	CompliancePending      = "Pending"
)

// Supplier is an external vendor subject to periodic evaluation
type Supplier struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	ContactName  string    `gorm:"type:varchar(255)" json:"contact_name"`
	ContactEmail string    `gorm:"type:varchar(255)" json:"contact_email"`
	Status       string    `gorm:"type:varchar(20);not null;default:'conditional';index" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SupplierEvaluation is a scored review of a supplier over a period.
// Ratings are 1-5; OverallScore is the 50/30/20 weighted average.
type SupplierEvaluation struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierID       uint            `gorm:"not null;index" json:"supplier_id"`
	EvaluationNumber string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"evaluation_number"`
	PeriodStart      time.Time       `gorm:"not null" json:"period_start"`
	PeriodEnd        time.Time       `gorm:"not null" json:"period_end"`
	QualityRating    int             `gorm:"not null" json:"quality_rating"`
	DeliveryRating   int             `gorm:"not null" json:"delivery_rating"`
	ServiceRating    int             `gorm:"not null" json:"service_rating"`
	OverallScore     decimal.Decimal `gorm:"type:numeric(4,2)" json:"overall_score"`
	ComplianceStatus string          `gorm:"type:varchar(20);not null;default:'Pending';index" json:"compliance_status"`
	Criteria         datatypes.JSON  `gorm:"type:jsonb" json:"criteria"` // optional per-criterion breakdown
	Comments         string          `gorm:"type:text" json:"comments"`
	EvaluatedBy      *uuid.UUID      `gorm:"type:uuid" json:"evaluated_by"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
