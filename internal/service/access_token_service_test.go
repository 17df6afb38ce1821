package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"qms/internal/model"

	"github.com/google/uuid"
)

type stubTokenRepo struct {
	created *model.AuditorAccessToken
	byHash  map[string]*model.AuditorAccessToken
	byID    map[uint]*model.AuditorAccessToken
	swept   int64
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{
		byHash: make(map[string]*model.AuditorAccessToken),
		byID:   make(map[uint]*model.AuditorAccessToken),
	}
}

func (s *stubTokenRepo) Create(_ context.Context, token *model.AuditorAccessToken) error {
	token.ID = uint(len(s.byID) + 1)
	token.CreatedAt = time.Now()
	s.created = token
	s.byHash[token.TokenHash] = token
	s.byID[token.ID] = token
	return nil
}

// Lookups return detached copies the way gorm hydrates fresh structs, so
// callers mutating a result never touch the stored row.
func (s *stubTokenRepo) FindByID(_ context.Context, id uint) (*model.AuditorAccessToken, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *stubTokenRepo) FindByHash(_ context.Context, hash string) (*model.AuditorAccessToken, error) {
	t, ok := s.byHash[hash]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *stubTokenRepo) List(_ context.Context, _, _ int) ([]model.AuditorAccessToken, int64, error) {
	out := make([]model.AuditorAccessToken, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (s *stubTokenRepo) ConsumeUse(_ context.Context, id uint) (bool, error) {
	t, ok := s.byID[id]
	if !ok || t.CurrentUses >= t.MaxUses {
		return false, nil
	}
	t.CurrentUses++
	return true, nil
}

func (s *stubTokenRepo) Revoke(_ context.Context, id uint, by *uuid.UUID, reason string, at time.Time) error {
	t := s.byID[id]
	t.Active = false
	t.RevokedAt = &at
	t.RevokedBy = by
	t.RevokedReason = reason
	return nil
}

func (s *stubTokenRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	for _, t := range s.byID {
		if t.Active && t.ExpiresAt.Before(now) {
			t.Active = false
			s.swept++
		}
	}
	return s.swept, nil
}

type stubAuditLogRepo struct {
	entries []model.AuditLog
	failErr error
}

func (s *stubAuditLogRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAuditLogRepo) List(_ context.Context, _ string, _, _ int) ([]model.AuditLog, int64, error) {
	return s.entries, int64(len(s.entries)), nil
}

// stubTxManager runs the unit of work on the bare context. The services only
// care that the callback executes and its error propagates.
type stubTxManager struct {
	calls int
}

func (s *stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.calls++
	return fn(ctx)
}

func newTokenService(t *testing.T) (AccessTokenService, *stubTokenRepo, *stubAuditLogRepo) {
	t.Helper()
	tokens := newStubTokenRepo()
	audit := &stubAuditLogRepo{}
	return NewAccessTokenService(tokens, audit, &stubTxManager{}), tokens, audit
}

func createToken(t *testing.T, svc AccessTokenService, maxUses, expiresInHours int) *TokenCreatedResponse {
	t.Helper()
	created, err := svc.CreateToken(context.Background(), CreateTokenRequest{
		AuditorName:    "Jane Auditor",
		AuditorEmail:   "jane@example.com",
		ExpiresInHours: expiresInHours,
		MaxUses:        maxUses,
		ScopeType:      model.ScopeGlobal,
	}, nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	return created
}

func TestCreateTokenReturnsPlaintextExactlyOnce(t *testing.T) {
	svc, repo, _ := newTokenService(t)
	created := createToken(t, svc, 5, 24)

	if created.Token == "" {
		t.Fatalf("creation response must carry the plaintext token")
	}
	if !strings.Contains(created.Warning, "cannot be retrieved again") {
		t.Fatalf("creation response must warn about one-time display, got %q", created.Warning)
	}
	if !strings.HasPrefix(created.TokenPreview, created.Token[:8]) {
		t.Fatalf("preview %q should derive from the token prefix", created.TokenPreview)
	}

	// The stored row holds only a hash, never the plaintext
	if repo.created.TokenHash == created.Token {
		t.Fatalf("plaintext must not be persisted")
	}

	// List and detail responses expose only the preview
	listed, _, err := svc.ListTokens(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("ListTokens: %v", err)
	}
	if len(listed) != 1 || listed[0].TokenPreview != created.TokenPreview {
		t.Fatalf("expected one listed token with preview only")
	}

	detail, err := svc.GetToken(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if detail.TokenPreview == created.Token {
		t.Fatalf("detail fetch must never return the full secret")
	}
}

func TestConsumeBurnsUsesUntilExhausted(t *testing.T) {
	svc, _, _ := newTokenService(t)
	created := createToken(t, svc, 2, 24)

	for i := 0; i < 2; i++ {
		if _, err := svc.Consume(context.Background(), created.Token, "audits"); err != nil {
			t.Fatalf("use %d: %v", i+1, err)
		}
	}

	_, err := svc.Consume(context.Background(), created.Token, "audits")
	if err == nil || !strings.Contains(err.Error(), "exhausted") {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestConsumeRejectsUnknownAndUnscopedTokens(t *testing.T) {
	svc, _, _ := newTokenService(t)
	created, err := svc.CreateToken(context.Background(), CreateTokenRequest{
		AuditorName:      "Scoped Auditor",
		ExpiresInHours:   24,
		MaxUses:          5,
		ScopeType:        model.ScopeGlobal,
		AllowedResources: []string{"documents"},
	}, nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	if _, err := svc.Consume(context.Background(), "not-a-token", "documents"); err == nil {
		t.Fatalf("unknown token must be rejected")
	}
	if _, err := svc.Consume(context.Background(), created.Token, "ncrs"); err == nil {
		t.Fatalf("out-of-scope resource must be rejected")
	}
	if _, err := svc.Consume(context.Background(), created.Token, "documents"); err != nil {
		t.Fatalf("in-scope resource should pass: %v", err)
	}
}

func TestConsumeEnforcesScopeType(t *testing.T) {
	svc, _, _ := newTokenService(t)
	auditID := uint(5)
	created, err := svc.CreateToken(context.Background(), CreateTokenRequest{
		AuditorName:    "Scoped Auditor",
		ExpiresInHours: 24,
		MaxUses:        10,
		ScopeType:      model.ScopeAudit,
		ScopeEntityID:  &auditID,
	}, nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	// Even with every resource allowed, an audit-scoped token never reaches
	// resource kinds outside its scope.
	for _, resource := range []string{"capas", "documents", "supplier_evaluations"} {
		_, err := svc.Consume(context.Background(), created.Token, resource)
		if err == nil || !strings.Contains(err.Error(), "scope") {
			t.Errorf("resource %s: expected scope rejection, got %v", resource, err)
		}
	}
	for _, resource := range []string{"audits", "ncrs", "attachments"} {
		token, err := svc.Consume(context.Background(), created.Token, resource)
		if err != nil {
			t.Errorf("resource %s: %v", resource, err)
			continue
		}
		if token.ScopeType != model.ScopeAudit || token.ScopeEntityID == nil || *token.ScopeEntityID != auditID {
			t.Errorf("consumed token must carry its scope for downstream filtering")
		}
	}
}

func TestTokenWritesShareTransactionWithTrail(t *testing.T) {
	tokens := newStubTokenRepo()
	audit := &stubAuditLogRepo{}
	tx := &stubTxManager{}
	svc := NewAccessTokenService(tokens, audit, tx)

	created, err := svc.CreateToken(context.Background(), CreateTokenRequest{
		AuditorName:    "Jane Auditor",
		ExpiresInHours: 24,
		MaxUses:        5,
		ScopeType:      model.ScopeGlobal,
	}, nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if tx.calls != 1 {
		t.Fatalf("issuance must run in one transaction, got %d", tx.calls)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != model.ActionIssueToken {
		t.Fatalf("issuance must be audit-logged inside the transaction")
	}

	// A failed trail write aborts the whole operation.
	audit.failErr = context.DeadlineExceeded
	if _, err := svc.RevokeToken(context.Background(), created.ID, RevokeTokenRequest{Reason: "done"}, nil); err == nil {
		t.Fatalf("revocation must fail when the trail write fails")
	}
}

func TestRevokedTokenCannotBeUsed(t *testing.T) {
	svc, _, audit := newTokenService(t)
	created := createToken(t, svc, 5, 24)

	revoked, err := svc.RevokeToken(context.Background(), created.ID, RevokeTokenRequest{Reason: "engagement ended"}, nil)
	if err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if revoked.State != model.TokenStateRevoked {
		t.Fatalf("expected revoked state, got %s", revoked.State)
	}

	if _, err := svc.Consume(context.Background(), created.Token, "audits"); err == nil {
		t.Fatalf("revoked token must be rejected")
	}

	// Double revocation is an error
	if _, err := svc.RevokeToken(context.Background(), created.ID, RevokeTokenRequest{Reason: "again"}, nil); err == nil {
		t.Fatalf("expected error revoking twice")
	}

	found := false
	for _, e := range audit.entries {
		if e.Action == model.ActionRevokeToken {
			found = true
		}
	}
	if !found {
		t.Fatalf("revocation must be audit-logged")
	}
}

func TestTokenStateDerivation(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	token := &model.AuditorAccessToken{Active: true, ExpiresAt: future, MaxUses: 2, CurrentUses: 0}
	if got := token.State(now); got != model.TokenStateActive {
		t.Errorf("fresh token state = %s, want active", got)
	}

	token.CurrentUses = 2
	if got := token.State(now); got != model.TokenStateExhausted {
		t.Errorf("spent token state = %s, want exhausted", got)
	}

	token.CurrentUses = 0
	token.ExpiresAt = past
	if got := token.State(now); got != model.TokenStateExpired {
		t.Errorf("stale token state = %s, want expired", got)
	}

	token.RevokedAt = &past
	if got := token.State(now); got != model.TokenStateRevoked {
		t.Errorf("revoked token state = %s, want revoked (revocation wins)", got)
	}

	// A row deactivated by the expiry sweep has no revocation timestamp and
	// must keep reading as expired, not revoked.
	swept := &model.AuditorAccessToken{Active: false, ExpiresAt: past, MaxUses: 2}
	if got := swept.State(now); got != model.TokenStateExpired {
		t.Errorf("swept token state = %s, want expired", got)
	}

	deactivated := &model.AuditorAccessToken{Active: false, ExpiresAt: future, MaxUses: 2, RevokedAt: &past}
	if got := deactivated.State(now); got != model.TokenStateRevoked {
		t.Errorf("revoked unexpired token state = %s, want revoked", got)
	}
}

func TestCleanupSweepsExpiredRows(t *testing.T) {
	svc, repo, _ := newTokenService(t)
	created := createToken(t, svc, 5, 24)
	repo.byID[created.ID].ExpiresAt = time.Now().Add(-time.Hour)

	swept, err := svc.Cleanup(context.Background(), nil)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept row, got %d", swept)
	}
	if repo.byID[created.ID].Active {
		t.Fatalf("expired token must be deactivated")
	}

	detail, err := svc.GetToken(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if detail.State != model.TokenStateExpired {
		t.Fatalf("swept token must report expired, got %s", detail.State)
	}
}
