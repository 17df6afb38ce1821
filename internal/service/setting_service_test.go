package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"qms/internal/model"
)

type stubSettingRepo struct {
	settings map[string]*model.SystemSetting
}

func newStubSettingRepo(settings ...model.SystemSetting) *stubSettingRepo {
	repo := &stubSettingRepo{settings: make(map[string]*model.SystemSetting)}
	for i := range settings {
		s := settings[i]
		repo.settings[s.Key] = &s
	}
	return repo
}

func (r *stubSettingRepo) List(_ context.Context) ([]model.SystemSetting, error) {
	out := make([]model.SystemSetting, 0, len(r.settings))
	for _, s := range r.settings {
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSettingRepo) GetByKey(_ context.Context, key string) (*model.SystemSetting, error) {
	if s, ok := r.settings[key]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, fmt.Errorf("record not found")
}

func (r *stubSettingRepo) UpdateValue(_ context.Context, key, value string) error {
	r.settings[key].Value = value
	return nil
}

func (r *stubSettingRepo) Upsert(_ context.Context, setting *model.SystemSetting) error {
	if _, ok := r.settings[setting.Key]; !ok {
		copied := *setting
		r.settings[setting.Key] = &copied
	}
	return nil
}

func TestUpdateSettingRejectsNonEditable(t *testing.T) {
	repo := newStubSettingRepo(model.SystemSetting{
		Key: "schema.version", Value: "1", ValueType: "int", IsEditable: false,
	})
	svc := NewSettingService(repo, &stubAuditLogRepo{}, &stubTxManager{})

	_, err := svc.UpdateSetting(context.Background(), "schema.version", UpdateSettingRequest{Value: "2"}, nil)
	if err == nil {
		t.Fatalf("expected error updating a locked setting")
	}
	if !strings.Contains(err.Error(), "schema.version") || !strings.Contains(err.Error(), "is not editable") {
		t.Fatalf("error must name the key and say it is not editable, got %q", err.Error())
	}
	if repo.settings["schema.version"].Value != "1" {
		t.Fatalf("locked setting value must stay unchanged")
	}
}

func TestUpdateSettingValidatesType(t *testing.T) {
	repo := newStubSettingRepo(model.SystemSetting{
		Key: "capa.default_due_days", Value: "30", ValueType: "int", IsEditable: true,
	})
	svc := NewSettingService(repo, &stubAuditLogRepo{}, &stubTxManager{})

	if _, err := svc.UpdateSetting(context.Background(), "capa.default_due_days", UpdateSettingRequest{Value: "not-a-number"}, nil); err == nil {
		t.Fatalf("expected error for non-integer value")
	}

	updated, err := svc.UpdateSetting(context.Background(), "capa.default_due_days", UpdateSettingRequest{Value: "45"}, nil)
	if err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	if updated.Value != "45" {
		t.Fatalf("expected updated value 45, got %s", updated.Value)
	}
}

func TestUpdateSettingWritesAuditTrail(t *testing.T) {
	repo := newStubSettingRepo(model.SystemSetting{
		Key: "ncr.number_prefix", Value: "NCR", ValueType: "string", IsEditable: true,
	})
	audit := &stubAuditLogRepo{}
	svc := NewSettingService(repo, audit, &stubTxManager{})

	if _, err := svc.UpdateSetting(context.Background(), "ncr.number_prefix", UpdateSettingRequest{Value: "NC"}, nil); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != model.ActionUpdateSetting {
		t.Fatalf("expected one UPDATE_SETTING audit entry, got %v", audit.entries)
	}
}

func TestUnknownSettingKey(t *testing.T) {
	svc := NewSettingService(newStubSettingRepo(), &stubAuditLogRepo{}, &stubTxManager{})
	if _, err := svc.UpdateSetting(context.Background(), "missing.key", UpdateSettingRequest{Value: "x"}, nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestSeedDefaultsKeepsExistingValues(t *testing.T) {
	repo := newStubSettingRepo(model.SystemSetting{
		Key: "ncr.number_prefix", Value: "CUSTOM", ValueType: "string", IsEditable: true,
	})
	svc := NewSettingService(repo, &stubAuditLogRepo{}, &stubTxManager{})

	if err := svc.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	if repo.settings["ncr.number_prefix"].Value != "CUSTOM" {
		t.Fatalf("seeding must not overwrite existing values")
	}
	if _, ok := repo.settings["schema.version"]; !ok {
		t.Fatalf("missing defaults must be inserted")
	}
}
