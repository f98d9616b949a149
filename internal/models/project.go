package models

import "time"

// Project kinds as stored and accepted on the wire.
const (
	ProjectKindInterim = "interim"
	ProjectKindFinal   = "final"
)

// Project represents a student project awaiting a defense session.
type Project struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	StudentName   string    `db:"student_name" json:"student_name"`
	Kind          string    `db:"kind" json:"kind"`
	Makeup        bool      `db:"makeup" json:"makeup"`
	ResponsibleID string    `db:"responsible_id" json:"responsible_id"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures filtering options for listing projects.
type ProjectFilter struct {
	Search        string
	Kind          *string
	Makeup        *bool
	ResponsibleID *string
	Active        *bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
