package model

import (
	"time"

	"github.com/google/uuid"
)

// Equipment statuses
const (
	EquipmentActive       = "active"
	EquipmentOutOfService = "out_of_service"
	EquipmentRetired      = "retired"
)

// Calibration results
const (
	CalibrationPass    = "pass"
	CalibrationFail    = "fail"
	CalibrationLimited = "limited"
)

// Equipment is a measuring or production asset under calibration control
type Equipment struct {
	ID                      uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetNumber             string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"asset_number"`
	Name                    string    `gorm:"type:varchar(255);not null" json:"name"`
	Location                string    `gorm:"type:varchar(255)" json:"location"`
	Status                  string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CalibrationIntervalDays int       `gorm:"default:365" json:"calibration_interval_days"`
	CreatedAt               time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Calibrations []CalibrationRecord `gorm:"foreignKey:EquipmentID;constraint:OnDelete:CASCADE" json:"calibrations,omitempty"`
}

// CalibrationRecord captures one calibration event and its certificate
type CalibrationRecord struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EquipmentID       uint       `gorm:"not null;index" json:"equipment_id"`
	PerformedAt       time.Time  `gorm:"not null" json:"performed_at"`
	DueDate           time.Time  `gorm:"not null;index" json:"due_date"`
	Result            string     `gorm:"type:varchar(20);not null" json:"result"`
	CertificateNumber string     `gorm:"type:varchar(100)" json:"certificate_number"`
	Notes             string     `gorm:"type:text" json:"notes"`
	PerformedBy       *uuid.UUID `gorm:"type:uuid" json:"performed_by"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// MaintenanceRecord captures preventive or repair maintenance on equipment
type MaintenanceRecord struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EquipmentID     uint       `gorm:"not null;index" json:"equipment_id"`
	MaintenanceType string     `gorm:"type:varchar(20);not null" json:"maintenance_type"` // preventive, repair
	PerformedAt     time.Time  `gorm:"not null" json:"performed_at"`
	Description     string     `gorm:"type:text" json:"description"`
	PerformedBy     *uuid.UUID `gorm:"type:uuid" json:"performed_by"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
