package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const insertTeacherSubject = `INSERT INTO teacher_subjects (teacher_id, subject_id, priority) VALUES (:teacher_id, :subject_id, :priority)`

// TeacherSubjectRepository manages which subjects each teacher may teach.
type TeacherSubjectRepository struct {
	db *sqlx.DB
}

// NewTeacherSubjectRepository creates a new repository.
func NewTeacherSubjectRepository(db *sqlx.DB) *TeacherSubjectRepository {
	return &TeacherSubjectRepository{db: db}
}

// List returns every teacher-subject mapping ordered by teacher then priority.
func (r *TeacherSubjectRepository) List(ctx context.Context) ([]models.TeacherSubject, error) {
	const query = `SELECT teacher_id, subject_id, priority FROM teacher_subjects ORDER BY teacher_id ASC, priority ASC, subject_id ASC`
	var mappings []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &mappings, query); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return mappings, nil
}

// Replace swaps the teacher's subject list for entries within a transaction.
func (r *TeacherSubjectRepository) Replace(ctx context.Context, teacherID string, entries []models.TeacherSubject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace teacher subjects: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear teacher subjects: %w", err)
	}

	for i := range entries {
		payload := entries[i]
		payload.TeacherID = teacherID
		if payload.Priority <= 0 {
			payload.Priority = 1
		}
		if _, err = tx.NamedExecContext(ctx, insertTeacherSubject, &payload); err != nil {
			return fmt.Errorf("insert teacher subject %s: %w", payload.SubjectID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace teacher subjects: %w", err)
	}
	return nil
}
