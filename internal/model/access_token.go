package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Auditor token scope types
const (
	ScopeGlobal   = "global"   // every resource in AllowedResources
	ScopeAudit    = "audit"    // a single audit and its attachments
	ScopeSupplier = "supplier" // a single supplier's evaluations
)

// Derived auditor token states (never stored; computed at read time)
const (
	TokenStateActive    = "active"
	TokenStateExhausted = "exhausted"
	TokenStateExpired   = "expired"
	TokenStateRevoked   = "revoked"
)

// AuditorAccessToken is a scoped, time-limited bearer credential handed to external
// auditors. Only a SHA-256 hash and a short preview are stored; the plaintext value
// is returned exactly once at creation time.
type AuditorAccessToken struct {
	ID               uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenHash        string         `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	TokenPreview     string         `gorm:"type:varchar(16);not null" json:"token_preview"`
	AuditorName      string         `gorm:"type:varchar(255);not null" json:"auditor_name"`
	AuditorEmail     string         `gorm:"type:varchar(255)" json:"auditor_email"`
	AuditorOrg       string         `gorm:"type:varchar(255)" json:"auditor_org"`
	ExpiresAt        time.Time      `gorm:"not null;index" json:"expires_at"`
	MaxUses          int            `gorm:"not null;default:10" json:"max_uses"`
	CurrentUses      int            `gorm:"not null;default:0" json:"current_uses"`
	ScopeType        string         `gorm:"type:varchar(20);not null;default:'global'" json:"scope_type"`
	ScopeEntityID    *uint          `json:"scope_entity_id"`
	AllowedResources datatypes.JSON `gorm:"type:jsonb" json:"allowed_resources"` // JSON array of resource names
	Active           bool           `gorm:"default:true;index" json:"active"`
	RevokedAt        *time.Time     `json:"revoked_at"`
	RevokedBy        *uuid.UUID     `gorm:"type:uuid" json:"revoked_by"`
	RevokedReason    string         `gorm:"type:text" json:"revoked_reason"`
	CreatedBy        *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// State derives the lifecycle state from the stored columns at the given instant.
// Revocation wins over expiry, expiry over exhaustion.
func (t *AuditorAccessToken) State(now time.Time) string {
	switch {
	case t.RevokedAt != nil:
		return TokenStateRevoked
	case now.After(t.ExpiresAt):
		return TokenStateExpired
	case t.CurrentUses >= t.MaxUses:
		return TokenStateExhausted
	case !t.Active:
		// Deactivated without a revocation timestamp and before expiry
		// should not happen, but read it as revoked rather than active.
		return TokenStateRevoked
	default:
		return TokenStateActive
	}
}

// Usable reports whether the token can still authenticate a request
func (t *AuditorAccessToken) Usable(now time.Time) bool {
	return t.State(now) == TokenStateActive
}
