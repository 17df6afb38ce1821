package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"qms/internal/model"
	"qms/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// --- Interface ---

type SettingService interface {
	ListSettings(ctx context.Context) ([]model.SystemSetting, error)
	GetSetting(ctx context.Context, key string) (*model.SystemSetting, error)
	UpdateSetting(ctx context.Context, key string, req UpdateSettingRequest, actor *uuid.UUID) (*model.SystemSetting, error)
	SeedDefaults(ctx context.Context) error
}

type settingService struct {
	repo  repository.SettingRepository
	audit repository.AuditLogRepository
	tx    repository.TransactionManager
}

func NewSettingService(repo repository.SettingRepository, audit repository.AuditLogRepository, tx repository.TransactionManager) SettingService {
	return &settingService{repo: repo, audit: audit, tx: tx}
}

// --- Implementation ---

func (s *settingService) ListSettings(ctx context.Context) ([]model.SystemSetting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return settings, nil
}

func (s *settingService) GetSetting(ctx context.Context, key string) (*model.SystemSetting, error) {
	setting, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("setting '%s' not found: %w", key, err)
	}
	return setting, nil
}

func (s *settingService) UpdateSetting(ctx context.Context, key string, req UpdateSettingRequest, actor *uuid.UUID) (*model.SystemSetting, error) {
	setting, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("setting '%s' not found: %w", key, err)
	}

	if !setting.IsEditable {
		return nil, fmt.Errorf("setting '%s' is not editable", setting.Key)
	}

	if err := validateSettingValue(setting.ValueType, req.Value); err != nil {
		return nil, err
	}

	oldValue := setting.Value
	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateValue(txCtx, key, req.Value); err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"key":       key,
			"old_value": oldValue,
			"new_value": req.Value,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionUpdateSetting,
			EntityID:   key,
			EntityName: key,
			Details:    string(details),
		})
	}); err != nil {
		return nil, err
	}

	return s.repo.GetByKey(ctx, key)
}

// SeedDefaults inserts missing settings; existing rows keep their values
func (s *settingService) SeedDefaults(ctx context.Context) error {
	defaults := []model.SystemSetting{
		{Key: "ncr.number_prefix", Value: "NCR", ValueType: "string", Description: "Prefix for generated NCR numbers", IsEditable: true},
		{Key: "capa.number_prefix", Value: "CAPA", ValueType: "string", Description: "Prefix for generated CAPA numbers", IsEditable: true},
		{Key: "audit.number_prefix", Value: "AUD", ValueType: "string", Description: "Prefix for generated audit numbers", IsEditable: true},
		{Key: "capa.default_due_days", Value: "30", ValueType: "int", Description: "Default CAPA due window in days", IsEditable: true},
		{Key: "calibration.due_warning_days", Value: "30", ValueType: "int", Description: "Days before due date a calibration counts as due soon", IsEditable: true},
		{Key: "training.expiry_warning_days", Value: "30", ValueType: "int", Description: "Days before expiry a training record counts as expiring", IsEditable: true},
		{Key: "schema.version", Value: "1", ValueType: "int", Description: "Internal schema marker", IsEditable: false},
	}

	for i := range defaults {
		if err := s.repo.Upsert(ctx, &defaults[i]); err != nil {
			return fmt.Errorf("failed to seed setting '%s': %w", defaults[i].Key, err)
		}
	}
	return nil
}

func validateSettingValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("value '%s' is not a valid integer", value)
		}
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("value '%s' is not a valid boolean", value)
		}
	}
	return nil
}
