package models

import "time"

// AuditAction enumerates recorded audit events.
type AuditAction string

const (
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionLogout         AuditAction = "LOGOUT"
	AuditActionPasswordChange AuditAction = "PASSWORD_CHANGE"
	AuditActionStatusChange   AuditAction = "STATUS_CHANGE"
)

// AuditLog records a sensitive action for later review.
type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	UserID     *string     `db:"user_id" json:"user_id,omitempty"`
	Action     AuditAction `db:"action" json:"action"`
	Resource   string      `db:"resource" json:"resource"`
	ResourceID *string     `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte      `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte      `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string      `db:"ip_address" json:"ip_address"`
	UserAgent  string      `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
