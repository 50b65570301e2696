package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// SubjectRepository reads the subject catalogue.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListActive returns active subjects ordered by name.
func (r *SubjectRepository) ListActive(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, code, name, is_active FROM subjects WHERE is_active = TRUE ORDER BY name ASC, id ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list active subjects: %w", err)
	}
	return subjects, nil
}
