package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// DefaultHoursPerWeek is stored when a class-subject row omits its quota.
const DefaultHoursPerWeek = 2

const insertClassSubject = `INSERT INTO class_subjects (class_id, subject_id, hours_per_week) VALUES (:class_id, :subject_id, :hours_per_week)`

// ClassSubjectRepository manages class-subject weekly quotas.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository creates a new repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// List returns every class-subject quota.
func (r *ClassSubjectRepository) List(ctx context.Context) ([]models.ClassSubject, error) {
	const query = `SELECT class_id, subject_id, hours_per_week FROM class_subjects ORDER BY class_id ASC, subject_id ASC`
	var mappings []models.ClassSubject
	if err := r.db.SelectContext(ctx, &mappings, query); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return mappings, nil
}

// ReplaceForClass replaces the quotas of a single class within a transaction.
func (r *ClassSubjectRepository) ReplaceForClass(ctx context.Context, classID string, entries []models.ClassSubject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace class subjects: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_subjects WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("clear class subjects: %w", err)
	}
	for i := range entries {
		entries[i].ClassID = classID
	}
	if err = insertClassSubjects(ctx, tx, entries); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace class subjects: %w", err)
	}
	return nil
}

// ReplaceAll replaces the entire class-subject matrix with entries.
func (r *ClassSubjectRepository) ReplaceAll(ctx context.Context, entries []models.ClassSubject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace class subject matrix: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_subjects`); err != nil {
		return fmt.Errorf("clear class subject matrix: %w", err)
	}
	if err = insertClassSubjects(ctx, tx, entries); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace class subject matrix: %w", err)
	}
	return nil
}

func insertClassSubjects(ctx context.Context, exec sqlx.ExtContext, entries []models.ClassSubject) error {
	for i := range entries {
		payload := entries[i]
		if payload.HoursPerWeek <= 0 {
			payload.HoursPerWeek = DefaultHoursPerWeek
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, insertClassSubject, &payload); err != nil {
			return fmt.Errorf("insert class subject %s/%s: %w", payload.ClassID, payload.SubjectID, err)
		}
	}
	return nil
}
