package models

// Teacher represents an instructor available to the timetable generator.
type Teacher struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"is_active" json:"is_active"`
}

// TeacherSubject marks a teacher as eligible to teach a subject.
// Priority 1 is the teacher's linear subject; larger values are secondary.
type TeacherSubject struct {
	TeacherID string `db:"teacher_id" json:"teacherId"`
	SubjectID string `db:"subject_id" json:"subjectId"`
	Priority  int    `db:"priority" json:"priority"`
}

// TeacherLimit bounds a teacher's weekly and daily load. Nil means unconstrained.
type TeacherLimit struct {
	TeacherID       string `db:"teacher_id" json:"teacherId"`
	MaxHoursPerWeek *int   `db:"max_hours_per_week" json:"maxWeek"`
	MaxHoursPerDay  *int   `db:"max_hours_per_day" json:"maxDay"`
	MinHoursLinier  *int   `db:"min_hours_linier" json:"minLinier"`
}
