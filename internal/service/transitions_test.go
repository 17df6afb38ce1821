package service

import (
	"testing"

	"qms/internal/model"
)

func TestDocumentTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{model.DocumentDraft, model.DocumentInReview, true},
		{model.DocumentInReview, model.DocumentApproved, true},
		{model.DocumentInReview, model.DocumentDraft, true}, // rejection sends it back
		{model.DocumentApproved, model.DocumentObsolete, true},
		{model.DocumentDraft, model.DocumentApproved, false},
		{model.DocumentApproved, model.DocumentDraft, false},
		{model.DocumentObsolete, model.DocumentDraft, false},
		{model.DocumentObsolete, model.DocumentApproved, false},
	}
	for _, c := range cases {
		if got := transitionAllowed(documentTransitions, c.from, c.to); got != c.want {
			t.Errorf("document %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestNCRTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{model.NCROpen, model.NCRUnderReview, true},
		{model.NCRUnderReview, model.NCRDispositioned, true},
		{model.NCRUnderReview, model.NCROpen, true},
		{model.NCRDispositioned, model.NCRClosed, true},
		{model.NCROpen, model.NCRDispositioned, false},
		{model.NCROpen, model.NCRClosed, false},
		{model.NCRClosed, model.NCROpen, false},
		{model.NCRClosed, model.NCRUnderReview, false},
	}
	for _, c := range cases {
		if got := transitionAllowed(ncrTransitions, c.from, c.to); got != c.want {
			t.Errorf("ncr %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCAPATransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{model.CAPAOpen, model.CAPAInProgress, true},
		{model.CAPAInProgress, model.CAPACompleted, true},
		{model.CAPACompleted, model.CAPAVerified, true},
		{model.CAPACompleted, model.CAPAInProgress, true}, // failed verification reopens work
		{model.CAPAVerified, model.CAPAClosed, true},
		{model.CAPAOpen, model.CAPACompleted, false},
		{model.CAPAInProgress, model.CAPAVerified, false},
		{model.CAPAVerified, model.CAPAInProgress, false},
		{model.CAPAClosed, model.CAPAOpen, false},
	}
	for _, c := range cases {
		if got := transitionAllowed(capaTransitions, c.from, c.to); got != c.want {
			t.Errorf("capa %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestAuditTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{model.AuditPlanned, model.AuditInProgress, true},
		{model.AuditInProgress, model.AuditCompleted, true},
		{model.AuditCompleted, model.AuditClosed, true},
		{model.AuditPlanned, model.AuditCompleted, false},
		{model.AuditInProgress, model.AuditPlanned, false},
		{model.AuditClosed, model.AuditInProgress, false},
	}
	for _, c := range cases {
		if got := transitionAllowed(auditTransitions, c.from, c.to); got != c.want {
			t.Errorf("audit %s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestParseOptionalUserID(t *testing.T) {
	if id, err := parseOptionalUserID(""); err != nil || id != nil {
		t.Errorf("empty input: got (%v, %v), want (nil, nil)", id, err)
	}

	raw := "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	id, err := parseOptionalUserID(raw)
	if err != nil {
		t.Fatalf("valid uuid: %v", err)
	}
	if id == nil || id.String() != raw {
		t.Errorf("valid uuid: got %v, want %s", id, raw)
	}

	if _, err := parseOptionalUserID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed uuid")
	}
}
