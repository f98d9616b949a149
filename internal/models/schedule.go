package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SavedSchedule is the persisted header of an accepted solver result.
type SavedSchedule struct {
	ID        string    `db:"id" json:"id"`
	RunID     string    `db:"run_id" json:"run_id"`
	Name      string    `db:"name" json:"name"`
	Strategy  string    `db:"strategy" json:"strategy"`
	Score     float64   `db:"score" json:"score"`
	Accepted  bool      `db:"accepted" json:"accepted"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SavedAssignment is one persisted defense booking belonging to a schedule.
// InstructorIDs keeps slate order; position zero is the responsible
// instructor.
type SavedAssignment struct {
	ID            string     `db:"id" json:"id"`
	ScheduleID    string     `db:"schedule_id" json:"schedule_id"`
	ProjectID     string     `db:"project_id" json:"project_id"`
	ClassroomID   string     `db:"classroom_id" json:"classroom_id"`
	TimeslotID    string     `db:"timeslot_id" json:"timeslot_id"`
	InstructorIDs StringList `db:"instructor_ids" json:"instructor_ids"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// StringList stores an ordered list of ids as a JSONB column.
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	return nil
}
