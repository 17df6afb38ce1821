package handler

import (
	"testing"

	"qms/internal/model"
)

func uintPtr(v uint) *uint { return &v }

func auditToken(id uint) *model.AuditorAccessToken {
	return &model.AuditorAccessToken{ScopeType: model.ScopeAudit, ScopeEntityID: uintPtr(id)}
}

func supplierToken(id uint) *model.AuditorAccessToken {
	return &model.AuditorAccessToken{ScopeType: model.ScopeSupplier, ScopeEntityID: uintPtr(id)}
}

func globalToken() *model.AuditorAccessToken {
	return &model.AuditorAccessToken{ScopeType: model.ScopeGlobal}
}

func TestAuditVisibility(t *testing.T) {
	scoped := &model.Audit{SupplierID: uintPtr(7)}
	scoped.ID = 3
	other := &model.Audit{}
	other.ID = 4

	if !auditVisible(globalToken(), other) {
		t.Errorf("global token must see every audit")
	}
	if !auditVisible(nil, other) {
		t.Errorf("absent token must not filter")
	}
	if !auditVisible(auditToken(3), scoped) {
		t.Errorf("audit-scoped token must see its own audit")
	}
	if auditVisible(auditToken(3), other) {
		t.Errorf("audit-scoped token must not see other audits")
	}
	if !auditVisible(supplierToken(7), scoped) {
		t.Errorf("supplier-scoped token must see that supplier's audits")
	}
	if auditVisible(supplierToken(7), other) {
		t.Errorf("supplier-scoped token must not see unrelated audits")
	}

	// A scoped token missing its entity id matches nothing
	broken := &model.AuditorAccessToken{ScopeType: model.ScopeAudit}
	if auditVisible(broken, scoped) || auditVisible(broken, other) {
		t.Errorf("scoped token without an entity id must see no audits")
	}
}

func TestNCRVisibility(t *testing.T) {
	ncr := &model.NCR{AuditID: uintPtr(3), SupplierID: uintPtr(7)}
	orphan := &model.NCR{}

	if !ncrVisible(auditToken(3), ncr) {
		t.Errorf("audit-scoped token must see NCRs of its audit")
	}
	if ncrVisible(auditToken(9), ncr) {
		t.Errorf("audit-scoped token must not see NCRs of other audits")
	}
	if ncrVisible(auditToken(3), orphan) {
		t.Errorf("audit-scoped token must not see NCRs with no audit link")
	}
	if !ncrVisible(supplierToken(7), ncr) {
		t.Errorf("supplier-scoped token must see that supplier's NCRs")
	}
	if ncrVisible(supplierToken(8), ncr) {
		t.Errorf("supplier-scoped token must not see other suppliers' NCRs")
	}
	if !ncrVisible(globalToken(), orphan) {
		t.Errorf("global token must see every NCR")
	}
}

func TestEvaluationVisibility(t *testing.T) {
	eval := &model.SupplierEvaluation{SupplierID: 7}

	if !evaluationVisible(supplierToken(7), eval) {
		t.Errorf("supplier-scoped token must see its supplier's evaluations")
	}
	if evaluationVisible(supplierToken(8), eval) {
		t.Errorf("supplier-scoped token must not see other suppliers' evaluations")
	}
	if !evaluationVisible(globalToken(), eval) {
		t.Errorf("global token must see every evaluation")
	}
}

func TestAttachmentTargetVisibility(t *testing.T) {
	cases := []struct {
		name       string
		token      *model.AuditorAccessToken
		entityType model.EntityType
		entityID   uint
		want       bool
	}{
		{"audit scope, own audit", auditToken(3), model.EntityAudit, 3, true},
		{"audit scope, other audit", auditToken(3), model.EntityAudit, 4, false},
		{"audit scope, document", auditToken(3), model.EntityDocument, 3, false},
		{"supplier scope, own supplier", supplierToken(7), model.EntitySupplier, 7, true},
		{"supplier scope, other entity", supplierToken(7), model.EntityAudit, 7, false},
		{"global scope", globalToken(), model.EntityDocument, 12, true},
		{"no token", nil, model.EntityNCR, 1, true},
	}
	for _, tc := range cases {
		if got := attachmentTargetVisible(tc.token, tc.entityType, tc.entityID); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
