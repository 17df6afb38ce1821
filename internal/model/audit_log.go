package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateDocument  = "CREATE_DOCUMENT"
	ActionUpdateDocument  = "UPDATE_DOCUMENT"
	ActionDocumentStatus  = "DOCUMENT_STATUS_CHANGE"
	ActionCreateAudit     = "CREATE_AUDIT"
	ActionCompleteAudit   = "COMPLETE_AUDIT"
	ActionCreateNCR       = "CREATE_NCR"
	ActionNCRStatus       = "NCR_STATUS_CHANGE"
	ActionCreateCAPA      = "CREATE_CAPA"
	ActionCAPAStatus      = "CAPA_STATUS_CHANGE"
	ActionCreateEval      = "CREATE_SUPPLIER_EVALUATION"
	ActionUploadFile      = "UPLOAD_ATTACHMENT"
	ActionDeleteFile      = "DELETE_ATTACHMENT"
	ActionIssueToken      = "ISSUE_AUDITOR_TOKEN"
	ActionRevokeToken     = "REVOKE_AUDITOR_TOKEN"
	ActionCleanupTokens   = "CLEANUP_AUDITOR_TOKENS"
	ActionUpdateSetting   = "UPDATE_SETTING"
	ActionGroupMembership = "GROUP_MEMBERSHIP_CHANGE"
	ActionGroupDocuments  = "GROUP_DOCUMENT_CHANGE"
	ActionTagAssignment   = "TAG_ASSIGNMENT_CHANGE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (numeric id/uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
