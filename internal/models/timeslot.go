package models

import "time"

// Timeslot represents one bookable defense window within the day.
// StartsAt and EndsAt hold wall-clock values in "15:04" form; ordering and
// late-slot policy derive from StartsAt.
type Timeslot struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	StartsAt  string    `db:"starts_at" json:"starts_at"`
	EndsAt    string    `db:"ends_at" json:"ends_at"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimeslotFilter captures filtering options for listing timeslots.
type TimeslotFilter struct {
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
