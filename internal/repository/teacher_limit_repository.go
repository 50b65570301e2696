package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const upsertTeacherLimit = `INSERT INTO teacher_limits (teacher_id, max_hours_per_week, max_hours_per_day, min_hours_linier)
VALUES (:teacher_id, :max_hours_per_week, :max_hours_per_day, :min_hours_linier)
ON CONFLICT (teacher_id)
DO UPDATE SET max_hours_per_week = EXCLUDED.max_hours_per_week, max_hours_per_day = EXCLUDED.max_hours_per_day,
              min_hours_linier = EXCLUDED.min_hours_linier`

// TeacherLimitRepository persists per-teacher load limits.
type TeacherLimitRepository struct {
	db *sqlx.DB
}

// NewTeacherLimitRepository constructs the repository.
func NewTeacherLimitRepository(db *sqlx.DB) *TeacherLimitRepository {
	return &TeacherLimitRepository{db: db}
}

// List returns every stored limit.
func (r *TeacherLimitRepository) List(ctx context.Context) ([]models.TeacherLimit, error) {
	const query = `SELECT teacher_id, max_hours_per_week, max_hours_per_day, min_hours_linier FROM teacher_limits ORDER BY teacher_id ASC`
	var limits []models.TeacherLimit
	if err := r.db.SelectContext(ctx, &limits, query); err != nil {
		return nil, fmt.Errorf("list teacher limits: %w", err)
	}
	return limits, nil
}

// Upsert inserts or replaces a single teacher's limits.
func (r *TeacherLimitRepository) Upsert(ctx context.Context, limit models.TeacherLimit) error {
	if _, err := r.db.NamedExecContext(ctx, upsertTeacherLimit, &limit); err != nil {
		return fmt.Errorf("upsert teacher limit %s: %w", limit.TeacherID, err)
	}
	return nil
}

// BulkUpsert performs upserts within a transaction.
func (r *TeacherLimitRepository) BulkUpsert(ctx context.Context, limits []models.TeacherLimit) error {
	if len(limits) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk teacher limit tx: %w", err)
	}
	for i := range limits {
		if _, err := tx.NamedExecContext(ctx, upsertTeacherLimit, &limits[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk upsert teacher limit %s: %w", limits[i].TeacherID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk teacher limit tx: %w", err)
	}
	return nil
}
