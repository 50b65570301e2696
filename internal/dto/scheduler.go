package dto

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

// GenerateRequest asks the engine for a timetable over the given days.
// Empty Days falls back to the stored schedule configuration.
type GenerateRequest struct {
	Days       []string       `json:"days" validate:"omitempty,unique,dive,required"`
	HoursByDay map[string]int `json:"hoursByDay" validate:"omitempty,dive,min=0,max=16"`
	Seed       *int64         `json:"seed,omitempty"`
}

// GenerateSummary counts slots visited during a run.
type GenerateSummary struct {
	Slots  int `json:"slots"`
	Filled int `json:"filled"`
	Failed int `json:"failed"`
}

// GenerateResponse is a proposed timetable. Nothing is persisted until Apply.
type GenerateResponse struct {
	RunID          string                    `json:"runId"`
	Seed           int64                     `json:"seed"`
	Days           []string                  `json:"days"`
	HoursByDay     map[string]int            `json:"hoursByDay"`
	Generated      []scheduler.Entry         `json:"generated"`
	Failed         []scheduler.Failure       `json:"failed"`
	FailedByClass  map[string]int            `json:"failedByClass"`
	LinearWarnings []scheduler.LinearWarning `json:"linearWarnings"`
	Summary        GenerateSummary           `json:"summary"`
}

// ReadinessResponse lists pre-generation checks.
type ReadinessResponse struct {
	Ready  bool                       `json:"ready"`
	Checks []scheduler.ReadinessCheck `json:"checks"`
}

// ApplyRequest carries the rows of a generated timetable to persist. When
// Rows is empty, RunID selects the rows of a recent Generate call.
type ApplyRequest struct {
	RunID string     `json:"runId,omitempty"`
	Rows  []ApplyRow `json:"rows" validate:"dive"`
}

// ApplyRow is a single generated entry.
type ApplyRow struct {
	Day       string `json:"day" validate:"required"`
	Hour      int    `json:"hour" validate:"required,min=1"`
	ClassID   string `json:"classId" validate:"required"`
	SubjectID string `json:"subjectId" validate:"required"`
	TeacherID string `json:"teacherId" validate:"required"`
}

// Entry converts the row to the engine representation.
func (r ApplyRow) Entry() scheduler.Entry {
	return scheduler.Entry{Day: r.Day, Hour: r.Hour, ClassID: r.ClassID, SubjectID: r.SubjectID, TeacherID: r.TeacherID}
}

// MutationResult is returned by every configuration and lifecycle write.
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// SubjectPriorityRequest assigns a subject to a teacher with a priority.
type SubjectPriorityRequest struct {
	SubjectID string `json:"subjectId" validate:"required"`
	Priority  int    `json:"priority" validate:"omitempty,min=1"`
}

// TeacherSubjectsRequest replaces a teacher's subjects. SubjectIDs is the
// legacy shape where list position sets the priority.
type TeacherSubjectsRequest struct {
	Subjects   []SubjectPriorityRequest `json:"subjects" validate:"omitempty,dive"`
	SubjectIDs []string                 `json:"subjectIds" validate:"omitempty,dive,required"`
}

// ClassSubjectHours sets one subject quota for a class.
type ClassSubjectHours struct {
	SubjectID    string `json:"subjectId" validate:"required"`
	HoursPerWeek int    `json:"hoursPerWeek" validate:"omitempty,min=0,max=40"`
}

// ClassSubjectsRequest replaces one class's subject quotas.
type ClassSubjectsRequest struct {
	Subjects []ClassSubjectHours `json:"subjects" validate:"dive"`
}

// ClassSubjectMapping is one cell of the class-subject matrix.
type ClassSubjectMapping struct {
	ClassID      string `json:"classId" validate:"required"`
	SubjectID    string `json:"subjectId" validate:"required"`
	HoursPerWeek int    `json:"hoursPerWeek" validate:"omitempty,min=0,max=40"`
}

// ClassSubjectsMatrixRequest replaces the whole class-subject matrix.
type ClassSubjectsMatrixRequest struct {
	Mappings []ClassSubjectMapping `json:"mappings" validate:"dive"`
}

// TeacherLimitRequest sets a teacher's load bounds. Nil leaves a bound open.
type TeacherLimitRequest struct {
	MaxWeek   *int `json:"maxWeek" validate:"omitempty,min=0"`
	MaxDay    *int `json:"maxDay" validate:"omitempty,min=0"`
	MinLinier *int `json:"minLinier" validate:"omitempty,min=0"`
}

// TeacherLimitItem is a TeacherLimitRequest addressed to one teacher.
type TeacherLimitItem struct {
	TeacherID string `json:"teacherId" validate:"required"`
	TeacherLimitRequest
}

// TeacherLimitsBulkRequest updates many teacher limits in one transaction.
type TeacherLimitsBulkRequest struct {
	Limits []TeacherLimitItem `json:"limits" validate:"dive"`
}

// ScheduleConfigRequest replaces the weekly grid configuration.
type ScheduleConfigRequest struct {
	Days           []string          `json:"days" validate:"required,min=1,unique,dive,required"`
	HoursByDay     map[string]int    `json:"hoursByDay" validate:"required,dive,min=0,max=16"`
	SlotDuration   int               `json:"slotDuration" validate:"required,min=1"`
	StartTimeByDay map[string]string `json:"startTimeByDay"`
}

// SchedulerMetaResponse bundles every configuration list the admin UI needs.
type SchedulerMetaResponse struct {
	Teachers        []models.Teacher        `json:"teachers"`
	Subjects        []models.Subject        `json:"subjects"`
	Classes         []models.Class          `json:"classes"`
	TeacherSubjects []models.TeacherSubject `json:"teacherSubjects"`
	ClassSubjects   []models.ClassSubject   `json:"classSubjects"`
	TeacherLimits   []models.TeacherLimit   `json:"teacherLimits"`
	Config          *models.ScheduleConfig  `json:"config,omitempty"`
}

// ScheduleQuery filters persisted schedule rows.
type ScheduleQuery struct {
	Day       string `form:"day"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	Format    string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
