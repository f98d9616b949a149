package models

import "time"

// Audit actions for authentication events.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionTokenRefresh   = "TOKEN_REFRESH"
	AuditActionTokenReuse     = "TOKEN_REUSE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
)

// Audit actions for account management.
const (
	AuditActionUserCreate = "USER_CREATE"
	AuditActionUserUpdate = "USER_UPDATE"
	AuditActionUserDelete = "USER_DELETE"
)

// Audit actions for scheduling work.
const (
	AuditActionRunStart     = "RUN_START"
	AuditActionScheduleSave = "SCHEDULE_SAVE"
	AuditActionRosterChange = "ROSTER_CHANGE"
	AuditActionExport       = "EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit trail listings. Empty string fields mean no
// filtering on that column.
type AuditFilter struct {
	UserID   string
	Action   string
	Resource string
	Page     int
	PageSize int
}

// Normalize clamps paging so the filter can be interpolated into SQL.
func (f AuditFilter) Normalize() AuditFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 200 {
		f.PageSize = 50
	}
	return f
}
