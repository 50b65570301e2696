package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// DefaultScheduleConfigName keys the active schedule configuration.
const DefaultScheduleConfigName = "default"

// ScheduleConfig describes the weekly grid used for generation.
type ScheduleConfig struct {
	Days           []string          `json:"days"`
	HoursByDay     map[string]int    `json:"hoursByDay"`
	SlotDuration   int               `json:"slotDuration"`
	StartTimeByDay map[string]string `json:"startTimeByDay"`
}

// ScheduleConfigRecord is the stored row holding a ScheduleConfig as JSON.
type ScheduleConfigRecord struct {
	Name      string         `db:"name" json:"name"`
	Config    types.JSONText `db:"config" json:"config"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleEntry is a persisted timetable row.
type ScheduleEntry struct {
	ID        string    `db:"id" json:"id"`
	Day       string    `db:"day" json:"day"`
	Hour      int       `db:"hour" json:"hour"`
	ClassID   string    `db:"class_id" json:"classId"`
	SubjectID string    `db:"subject_id" json:"subjectId"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduleEntryDetail extends ScheduleEntry with display names.
type ScheduleEntryDetail struct {
	ScheduleEntry
	ClassName   *string `db:"class_name" json:"className,omitempty"`
	SubjectName *string `db:"subject_name" json:"subjectName,omitempty"`
	TeacherName *string `db:"teacher_name" json:"teacherName,omitempty"`
}

// ScheduleEntryFilter narrows listing of persisted entries.
type ScheduleEntryFilter struct {
	Day       string
	ClassID   string
	TeacherID string
}

// ScheduleConflict describes a persisted or proposed entry that collides with a proposed row.
type ScheduleConflict struct {
	ScheduleID string `json:"schedule_id,omitempty"`
	Day        string `json:"day"`
	Hour       int    `json:"hour"`
	ClassID    string `json:"class_id"`
	SubjectID  string `json:"subject_id"`
	TeacherID  string `json:"teacher_id"`
	Dimension  string `json:"dimension"`
}

// ScheduleConflictError is returned when applied rows collide with each other or existing rows.
type ScheduleConflictError struct {
	Type    string             `json:"type"`
	Message string             `json:"message"`
	Errors  []ScheduleConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
