package models

import (
	"time"

	"github.com/google/uuid"
)

// StaffRoleAssignment grants a back-office role to a user. Revoked
// assignments stay with IsActive false.
type StaffRoleAssignment struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
	IsActive  bool      `json:"is_active"`
}

// AuditLog traces an attempted action
type AuditLog struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Success    bool      `json:"success"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Audit actions
const (
	ActionOrderCreate        = "order.create"
	ActionOrderStatusUpdate  = "order.status_update"
	ActionOrderPaymentUpdate = "order.payment_update"
	ActionOrderView          = "order.view"
	ActionProductCreate      = "product.create"
	ActionVariantCreate      = "variant.create"
	ActionVariantUpdate      = "variant.update"
	ActionVariantDelete      = "variant.delete"
	ActionProductImage       = "product.image_upload"
	ActionUserView           = "user.view"
	ActionUserProfileUpdate  = "user.profile_update"
	ActionRoleView           = "role.view"
	ActionRoleAssign         = "role.assign"
	ActionRoleRevoke         = "role.revoke"
	ActionSurveyCategory     = "survey_category.write"
	ActionDashboardView      = "dashboard.view"
	ActionAuditView          = "audit.view"
)
