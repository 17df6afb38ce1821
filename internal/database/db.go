package database

import (
	"qms/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Group{},
		&model.GroupMember{},
		&model.GroupDocument{},
		&model.Tag{},
		&model.Document{},
		&model.Attachment{},
		&model.AuditorAccessToken{},
		&model.Audit{},
		&model.ChecklistItem{},
		&model.NCR{},
		&model.CAPA{},
		&model.Supplier{},
		&model.SupplierEvaluation{},
		&model.Equipment{},
		&model.CalibrationRecord{},
		&model.MaintenanceRecord{},
		&model.OrgUnit{},
		&model.Position{},
		&model.TrainingCourse{},
		&model.TrainingRecord{},
		&model.SystemSetting{},
		&model.AuditLog{},
	)
	if err != nil {
		logrus.WithError(err).Warn("Failed to auto-migrate models")
	}

	return db, nil
}
