package service

import (
	"context"
	"fmt"
	"time"

	"qms/internal/model"
	"qms/internal/notification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateEquipmentRequest struct {
	AssetNumber             string `json:"asset_number" binding:"required"`
	Name                    string `json:"name" binding:"required"`
	Location                string `json:"location"`
	CalibrationIntervalDays int    `json:"calibration_interval_days"`
}

type UpdateEquipmentRequest struct {
	Name                    string `json:"name" binding:"required"`
	Location                string `json:"location"`
	Status                  string `json:"status" binding:"required,oneof=active out_of_service retired"`
	CalibrationIntervalDays int    `json:"calibration_interval_days"`
}

type CalibrationRequest struct {
	PerformedAt       time.Time  `json:"performed_at" binding:"required"`
	Result            string     `json:"result" binding:"required,oneof=pass fail limited"`
	CertificateNumber string     `json:"certificate_number"`
	Notes             string     `json:"notes"`
	DueDate           *time.Time `json:"due_date"`
}

type MaintenanceRequest struct {
	MaintenanceType string    `json:"maintenance_type" binding:"required,oneof=preventive repair"`
	PerformedAt     time.Time `json:"performed_at" binding:"required"`
	Description     string    `json:"description"`
}

type EquipmentFilter struct {
	Status string
	Search string
}

// CalibrationDueEntry pairs an asset with its next calibration deadline.
type CalibrationDueEntry struct {
	Equipment model.Equipment `json:"equipment"`
	DueDate   time.Time       `json:"due_date"`
}

// --- Interface ---

type EquipmentService interface {
	ListEquipment(ctx context.Context, filter EquipmentFilter, page, limit int) ([]model.Equipment, int64, error)
	GetEquipment(ctx context.Context, id uint) (*model.Equipment, error)
	CreateEquipment(ctx context.Context, req CreateEquipmentRequest) (*model.Equipment, error)
	UpdateEquipment(ctx context.Context, id uint, req UpdateEquipmentRequest) (*model.Equipment, error)
	DeleteEquipment(ctx context.Context, id uint) error

	RecordCalibration(ctx context.Context, equipmentID uint, req CalibrationRequest, actor *uuid.UUID) (*model.CalibrationRecord, error)
	RecordMaintenance(ctx context.Context, equipmentID uint, req MaintenanceRequest, actor *uuid.UUID) (*model.MaintenanceRecord, error)
	ListMaintenance(ctx context.Context, equipmentID uint) ([]model.MaintenanceRecord, error)
	CalibrationsDueSoon(ctx context.Context, withinDays int) ([]CalibrationDueEntry, error)
}

type equipmentService struct {
	db  *gorm.DB
	hub *notification.Hub
	now func() time.Time
}

func NewEquipmentService(db *gorm.DB, hub *notification.Hub) EquipmentService {
	return &equipmentService{db: db, hub: hub, now: time.Now}
}

// --- Implementation ---

func (s *equipmentService) ListEquipment(ctx context.Context, filter EquipmentFilter, page, limit int) ([]model.Equipment, int64, error) {
	var items []model.Equipment
	var total int64

	db := s.db.WithContext(ctx).Model(&model.Equipment{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("asset_number ILIKE ? OR name ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count equipment: %w", err)
	}

	offset := (page - 1) * limit
	if err := db.Order("asset_number ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch equipment: %w", err)
	}
	return items, total, nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, id uint) (*model.Equipment, error) {
	var eq model.Equipment
	err := s.db.WithContext(ctx).
		Preload("Calibrations", func(db *gorm.DB) *gorm.DB { return db.Order("performed_at DESC") }).
		First(&eq, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("equipment not found: %w", err)
	}
	return &eq, nil
}

func (s *equipmentService) CreateEquipment(ctx context.Context, req CreateEquipmentRequest) (*model.Equipment, error) {
	eq := model.Equipment{
		AssetNumber:             req.AssetNumber,
		Name:                    req.Name,
		Location:                req.Location,
		Status:                  model.EquipmentActive,
		CalibrationIntervalDays: req.CalibrationIntervalDays,
	}
	if eq.CalibrationIntervalDays <= 0 {
		eq.CalibrationIntervalDays = 365
	}
	if err := s.db.WithContext(ctx).Create(&eq).Error; err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}
	return &eq, nil
}

func (s *equipmentService) UpdateEquipment(ctx context.Context, id uint, req UpdateEquipmentRequest) (*model.Equipment, error) {
	eq, err := s.GetEquipment(ctx, id)
	if err != nil {
		return nil, err
	}

	eq.Name = req.Name
	eq.Location = req.Location
	eq.Status = req.Status
	if req.CalibrationIntervalDays > 0 {
		eq.CalibrationIntervalDays = req.CalibrationIntervalDays
	}

	if err := s.db.WithContext(ctx).Save(eq).Error; err != nil {
		return nil, fmt.Errorf("failed to update equipment: %w", err)
	}
	return eq, nil
}

func (s *equipmentService) DeleteEquipment(ctx context.Context, id uint) error {
	eq, err := s.GetEquipment(ctx, id)
	if err != nil {
		return err
	}
	if eq.Status != model.EquipmentRetired {
		return fmt.Errorf("equipment must be retired before deletion")
	}
	return s.db.WithContext(ctx).Select("Calibrations").Delete(eq).Error
}

// RecordCalibration stores the event and derives the next due date from the
// asset's interval when none is given. A failed calibration takes the asset
// out of service.
func (s *equipmentService) RecordCalibration(ctx context.Context, equipmentID uint, req CalibrationRequest, actor *uuid.UUID) (*model.CalibrationRecord, error) {
	eq, err := s.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if eq.Status == model.EquipmentRetired {
		return nil, fmt.Errorf("cannot calibrate retired equipment")
	}

	due := req.PerformedAt.AddDate(0, 0, eq.CalibrationIntervalDays)
	if req.DueDate != nil {
		due = *req.DueDate
	}

	record := model.CalibrationRecord{
		EquipmentID:       equipmentID,
		PerformedAt:       req.PerformedAt,
		DueDate:           due,
		Result:            req.Result,
		CertificateNumber: req.CertificateNumber,
		Notes:             req.Notes,
		PerformedBy:       actor,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record calibration: %w", err)
		}
		if req.Result == model.CalibrationFail && eq.Status == model.EquipmentActive {
			if err := tx.Model(&model.Equipment{}).Where("id = ?", equipmentID).Update("status", model.EquipmentOutOfService).Error; err != nil {
				return fmt.Errorf("failed to take equipment out of service: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil && req.Result == model.CalibrationFail {
		s.hub.Notify(notification.Event{
			Event:      "equipment.calibration_failed",
			Message:    fmt.Sprintf("Equipment %s failed calibration and is out of service", eq.AssetNumber),
			Severity:   "error",
			EntityType: "equipment",
			EntityID:   equipmentID,
		})
	}
	return &record, nil
}

func (s *equipmentService) RecordMaintenance(ctx context.Context, equipmentID uint, req MaintenanceRequest, actor *uuid.UUID) (*model.MaintenanceRecord, error) {
	if _, err := s.GetEquipment(ctx, equipmentID); err != nil {
		return nil, err
	}

	record := model.MaintenanceRecord{
		EquipmentID:     equipmentID,
		MaintenanceType: req.MaintenanceType,
		PerformedAt:     req.PerformedAt,
		Description:     req.Description,
		PerformedBy:     actor,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to record maintenance: %w", err)
	}
	return &record, nil
}

func (s *equipmentService) ListMaintenance(ctx context.Context, equipmentID uint) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := s.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("performed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch maintenance records: %w", err)
	}
	return records, nil
}

// CalibrationsDueSoon returns active assets whose latest calibration due date
// falls within the window, including assets already past due.
func (s *equipmentService) CalibrationsDueSoon(ctx context.Context, withinDays int) ([]CalibrationDueEntry, error) {
	if withinDays <= 0 {
		withinDays = 30
	}
	cutoff := s.now().AddDate(0, 0, withinDays)

	var rows []struct {
		EquipmentID uint
		DueDate     time.Time
	}
	err := s.db.WithContext(ctx).
		Table("calibration_records").
		Select("equipment_id, MAX(due_date) AS due_date").
		Group("equipment_id").
		Having("MAX(due_date) <= ?", cutoff).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query calibration due dates: %w", err)
	}
	if len(rows) == 0 {
		return []CalibrationDueEntry{}, nil
	}

	ids := make([]uint, 0, len(rows))
	dueByID := make(map[uint]time.Time, len(rows))
	for _, row := range rows {
		ids = append(ids, row.EquipmentID)
		dueByID[row.EquipmentID] = row.DueDate
	}

	var equipment []model.Equipment
	err = s.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, model.EquipmentActive).
		Order("asset_number ASC").
		Find(&equipment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch equipment: %w", err)
	}

	entries := make([]CalibrationDueEntry, 0, len(equipment))
	for _, eq := range equipment {
		entries = append(entries, CalibrationDueEntry{Equipment: eq, DueDate: dueByID[eq.ID]})
	}
	return entries, nil
}
