package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"qms/internal/model"
	"qms/internal/repository"

	"github.com/google/uuid"
)

// Resources an auditor token may be scoped to
var auditorResources = []string{
	"audits", "ncrs", "capas", "documents", "supplier_evaluations", "attachments",
}

// --- DTOs ---

type CreateTokenRequest struct {
	AuditorName      string   `json:"auditor_name" binding:"required"`
	AuditorEmail     string   `json:"auditor_email" binding:"omitempty,email"`
	AuditorOrg       string   `json:"auditor_org"`
	ExpiresInHours   int      `json:"expires_in_hours" binding:"required,min=1,max=2160"`
	MaxUses          int      `json:"max_uses" binding:"required,min=1,max=1000"`
	ScopeType        string   `json:"scope_type" binding:"required,oneof=global audit supplier"`
	ScopeEntityID    *uint    `json:"scope_entity_id"`
	AllowedResources []string `json:"allowed_resources"`
}

type RevokeTokenRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TokenResponse never carries the plaintext token; only the stored preview
type TokenResponse struct {
	ID               uint     `json:"id"`
	TokenPreview     string   `json:"token_preview"`
	AuditorName      string   `json:"auditor_name"`
	AuditorEmail     string   `json:"auditor_email"`
	AuditorOrg       string   `json:"auditor_org"`
	ExpiresAt        string   `json:"expires_at"`
	MaxUses          int      `json:"max_uses"`
	CurrentUses      int      `json:"current_uses"`
	ScopeType        string   `json:"scope_type"`
	ScopeEntityID    *uint    `json:"scope_entity_id"`
	AllowedResources []string `json:"allowed_resources"`
	State            string   `json:"state"`
	RevokedReason    string   `json:"revoked_reason,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

// TokenCreatedResponse is returned exactly once, carrying the plaintext value
type TokenCreatedResponse struct {
	TokenResponse
	Token   string `json:"token"`
	Warning string `json:"warning"`
}

type TokenOptionsResponse struct {
	ScopeTypes       []string `json:"scope_types"`
	AllowedResources []string `json:"allowed_resources"`
	MaxUsesLimit     int      `json:"max_uses_limit"`
	MaxExpiryHours   int      `json:"max_expiry_hours"`
}

// --- Interface ---

type AccessTokenService interface {
	CreateToken(ctx context.Context, req CreateTokenRequest, actor *uuid.UUID) (*TokenCreatedResponse, error)
	ListTokens(ctx context.Context, page, limit int) ([]TokenResponse, int64, error)
	GetToken(ctx context.Context, id uint) (*TokenResponse, error)
	RevokeToken(ctx context.Context, id uint, req RevokeTokenRequest, actor *uuid.UUID) (*TokenResponse, error)
	Cleanup(ctx context.Context, actor *uuid.UUID) (int64, error)
	Options() TokenOptionsResponse

	// Consume validates a plaintext token against a resource and burns one use
	Consume(ctx context.Context, plaintext, resource string) (*model.AuditorAccessToken, error)
}

type accessTokenService struct {
	tokens repository.AuditorTokenRepository
	audit  repository.AuditLogRepository
	tx     repository.TransactionManager
	now    func() time.Time
}

func NewAccessTokenService(tokens repository.AuditorTokenRepository, audit repository.AuditLogRepository, tx repository.TransactionManager) AccessTokenService {
	return &accessTokenService{tokens: tokens, audit: audit, tx: tx, now: time.Now}
}

// --- Implementation ---

func (s *accessTokenService) CreateToken(ctx context.Context, req CreateTokenRequest, actor *uuid.UUID) (*TokenCreatedResponse, error) {
	if req.ScopeType != model.ScopeGlobal && req.ScopeEntityID == nil {
		return nil, fmt.Errorf("scope_entity_id is required for scope type '%s'", req.ScopeType)
	}

	resources := req.AllowedResources
	for _, r := range resources {
		if !validAuditorResource(r) {
			return nil, fmt.Errorf("unknown resource '%s'", r)
		}
	}
	if len(resources) == 0 {
		resources = auditorResources
	}
	resourcesJSON, err := json.Marshal(resources)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resources: %w", err)
	}

	plaintext, hash, err := generateTokenValue()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := model.AuditorAccessToken{
		TokenHash:        hash,
		TokenPreview:     plaintext[:8] + "...",
		AuditorName:      req.AuditorName,
		AuditorEmail:     req.AuditorEmail,
		AuditorOrg:       req.AuditorOrg,
		ExpiresAt:        s.now().Add(time.Duration(req.ExpiresInHours) * time.Hour),
		MaxUses:          req.MaxUses,
		CurrentUses:      0,
		ScopeType:        req.ScopeType,
		ScopeEntityID:    req.ScopeEntityID,
		AllowedResources: resourcesJSON,
		Active:           true,
		CreatedBy:        actor,
	}

	// The row and its issuance trail commit or roll back together.
	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tokens.Create(txCtx, &token); err != nil {
			return fmt.Errorf("failed to create token: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"auditor_name": req.AuditorName,
			"scope_type":   req.ScopeType,
			"max_uses":     req.MaxUses,
		})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionIssueToken,
			EntityID:   fmt.Sprintf("%d", token.ID),
			EntityName: req.AuditorName,
			Details:    string(details),
		})
	}); err != nil {
		return nil, err
	}

	return &TokenCreatedResponse{
		TokenResponse: s.toResponse(&token),
		Token:         plaintext,
		Warning:       "Store this token now. It cannot be retrieved again.",
	}, nil
}

func (s *accessTokenService) ListTokens(ctx context.Context, page, limit int) ([]TokenResponse, int64, error) {
	tokens, total, err := s.tokens.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tokens: %w", err)
	}

	res := make([]TokenResponse, 0, len(tokens))
	for i := range tokens {
		res = append(res, s.toResponse(&tokens[i]))
	}
	return res, total, nil
}

func (s *accessTokenService) GetToken(ctx context.Context, id uint) (*TokenResponse, error) {
	token, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("token %d not found", id)
	}
	res := s.toResponse(token)
	return &res, nil
}

func (s *accessTokenService) RevokeToken(ctx context.Context, id uint, req RevokeTokenRequest, actor *uuid.UUID) (*TokenResponse, error) {
	token, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("token %d not found", id)
	}
	if token.RevokedAt != nil {
		return nil, fmt.Errorf("token %d is already revoked", id)
	}

	now := s.now()
	if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tokens.Revoke(txCtx, id, actor, req.Reason, now); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"reason": req.Reason})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionRevokeToken,
			EntityID:   fmt.Sprintf("%d", id),
			EntityName: token.AuditorName,
			Details:    string(details),
		})
	}); err != nil {
		return nil, err
	}

	return s.GetToken(ctx, id)
}

func (s *accessTokenService) Cleanup(ctx context.Context, actor *uuid.UUID) (int64, error) {
	var swept int64
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		swept, err = s.tokens.DeactivateExpired(txCtx, s.now())
		if err != nil {
			return fmt.Errorf("failed to clean up tokens: %w", err)
		}
		if swept == 0 {
			return nil
		}

		details, _ := json.Marshal(map[string]interface{}{"deactivated": swept})
		return s.audit.Log(txCtx, &model.AuditLog{
			UserID:  actor,
			Action:  model.ActionCleanupTokens,
			Details: string(details),
		})
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

func (s *accessTokenService) Options() TokenOptionsResponse {
	return TokenOptionsResponse{
		ScopeTypes:       []string{model.ScopeGlobal, model.ScopeAudit, model.ScopeSupplier},
		AllowedResources: auditorResources,
		MaxUsesLimit:     1000,
		MaxExpiryHours:   2160,
	}
}

func (s *accessTokenService) Consume(ctx context.Context, plaintext, resource string) (*model.AuditorAccessToken, error) {
	token, err := s.tokens.FindByHash(ctx, hashTokenValue(plaintext))
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("invalid auditor access token")
	}

	now := s.now()
	if !token.Usable(now) {
		return nil, fmt.Errorf("auditor access token is %s", token.State(now))
	}

	if resource != "" && !tokenAllowsResource(token, resource) {
		return nil, fmt.Errorf("token is not scoped for resource '%s'", resource)
	}
	if resource != "" && !scopeAllowsResource(token, resource) {
		return nil, fmt.Errorf("token scope '%s' does not cover resource '%s'", token.ScopeType, resource)
	}

	consumed, err := s.tokens.ConsumeUse(ctx, token.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume token use: %w", err)
	}
	if !consumed {
		return nil, fmt.Errorf("auditor access token is exhausted")
	}
	token.CurrentUses++

	return token, nil
}

// --- Helpers ---

func generateTokenValue() (plaintext, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(buf)
	return plaintext, hashTokenValue(plaintext), nil
}

func hashTokenValue(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func validAuditorResource(resource string) bool {
	for _, r := range auditorResources {
		if r == resource {
			return true
		}
	}
	return false
}

// Resource kinds reachable under each non-global scope type. A token scoped
// to one audit can read that audit, its NCRs and its attachments; a token
// scoped to one supplier can additionally read the supplier's evaluations.
// Entity-level narrowing happens in the external handlers.
var scopeResources = map[string][]string{
	model.ScopeAudit:    {"audits", "ncrs", "attachments"},
	model.ScopeSupplier: {"audits", "ncrs", "attachments", "supplier_evaluations"},
}

func scopeAllowsResource(token *model.AuditorAccessToken, resource string) bool {
	if token.ScopeType == "" || token.ScopeType == model.ScopeGlobal {
		return true
	}
	allowed, ok := scopeResources[token.ScopeType]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == resource {
			return true
		}
	}
	return false
}

func tokenAllowsResource(token *model.AuditorAccessToken, resource string) bool {
	var resources []string
	if err := json.Unmarshal(token.AllowedResources, &resources); err != nil || len(resources) == 0 {
		return false
	}
	for _, r := range resources {
		if r == resource {
			return true
		}
	}
	return false
}

func (s *accessTokenService) toResponse(token *model.AuditorAccessToken) TokenResponse {
	var resources []string
	_ = json.Unmarshal(token.AllowedResources, &resources)

	return TokenResponse{
		ID:               token.ID,
		TokenPreview:     token.TokenPreview,
		AuditorName:      token.AuditorName,
		AuditorEmail:     token.AuditorEmail,
		AuditorOrg:       token.AuditorOrg,
		ExpiresAt:        token.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		MaxUses:          token.MaxUses,
		CurrentUses:      token.CurrentUses,
		ScopeType:        token.ScopeType,
		ScopeEntityID:    token.ScopeEntityID,
		AllowedResources: resources,
		State:            token.State(s.now()),
		RevokedReason:    token.RevokedReason,
		CreatedAt:        token.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
