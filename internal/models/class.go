package models

// Class represents a student group that is scheduled as a unit.
type Class struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ClassSubject sets which subjects a class takes and the weekly hour target.
type ClassSubject struct {
	ClassID      string `db:"class_id" json:"classId"`
	SubjectID    string `db:"subject_id" json:"subjectId"`
	HoursPerWeek int    `db:"hours_per_week" json:"hoursPerWeek"`
}
