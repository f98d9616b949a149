package models

import "time"

// InstructorCategory mirrors the engine's senior/junior split on the wire.
const (
	InstructorCategorySenior = "senior"
	InstructorCategoryJunior = "junior"
)

// Instructor represents a faculty member eligible for defense sessions.
type Instructor struct {
	ID        string    `db:"id" json:"id"`
	Code      *string   `db:"code" json:"code,omitempty"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Category  string    `db:"category" json:"category"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InstructorFilter captures filtering options for listing instructors.
type InstructorFilter struct {
	Search    string
	Category  *string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
