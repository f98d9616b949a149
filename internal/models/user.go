package models

import (
	"strings"
	"time"
)

// UserRole determines what an account may do. Admins manage accounts and
// the audit trail, coordinators maintain roster data and launch solver
// runs, viewers only read published schedules.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleViewer      UserRole = "VIEWER"
)

// KnownRoles lists every role the API accepts, most privileged first.
func KnownRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleCoordinator, RoleViewer}
}

// Known reports whether the role is one the route guards understand.
// Tokens minted under an older role scheme must not slip through as an
// unmatched role.
func (r UserRole) Known() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleViewer:
		return true
	}
	return false
}

// IsAdmin reports whether the role carries account management rights.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// NormalizeEmail returns the canonical form stored in the users table.
// Lookups must use the same form or case variants of one address would
// pass the uniqueness check.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Normalize clamps paging values and whitelists sort inputs so the filter
// can be interpolated into SQL.
func (f UserFilter) Normalize() UserFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}

	switch f.SortBy {
	case "email", "full_name", "created_at", "updated_at":
	default:
		f.SortBy = "created_at"
	}

	f.SortOrder = strings.ToUpper(f.SortOrder)
	if f.SortOrder != "ASC" && f.SortOrder != "DESC" {
		f.SortOrder = "DESC"
	}

	return f
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
