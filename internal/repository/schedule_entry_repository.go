package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// scheduleWriteLockKey identifies the advisory lock held while schedule rows are written.
const scheduleWriteLockKey int64 = 0x5343484544 // "SCHED"

const insertScheduleEntry = `INSERT INTO schedule_entries (id, day, hour, class_id, subject_id, teacher_id, created_at) VALUES (:id, :day, :hour, :class_id, :subject_id, :teacher_id, :created_at)`

// ScheduleEntryRepository persists applied timetable rows.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository creates a new schedule entry repository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

// List returns persisted rows joined with display names. When dayOrder is
// set, rows follow that day order; otherwise days sort lexically.
func (r *ScheduleEntryRepository) List(ctx context.Context, filter models.ScheduleEntryFilter, dayOrder []string) ([]models.ScheduleEntryDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("se.day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("se.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("se.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := "se.day ASC"
	if len(dayOrder) > 0 {
		order = fmt.Sprintf("array_position($%d::text[], se.day) ASC", len(args)+1)
		args = append(args, pq.Array(dayOrder))
	}

	query := `SELECT se.id, se.day, se.hour, se.class_id, se.subject_id, se.teacher_id, se.created_at,
       c.name AS class_name, s.name AS subject_name, t.name AS teacher_name
FROM schedule_entries se
LEFT JOIN classes c ON c.id = se.class_id
LEFT JOIN subjects s ON s.id = se.subject_id
LEFT JOIN teachers t ON t.id = se.teacher_id` + where + `
ORDER BY ` + order + `, se.hour ASC, c.name ASC, se.class_id ASC`

	var entries []models.ScheduleEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// LockForWrite takes the transaction-scoped advisory lock serialising schedule writes.
func (r *ScheduleEntryRepository) LockForWrite(ctx context.Context, tx *sqlx.Tx) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, scheduleWriteLockKey); err != nil {
		return fmt.Errorf("lock schedule entries: %w", err)
	}
	return nil
}

// ListWithTx returns every persisted row as seen by tx.
func (r *ScheduleEntryRepository) ListWithTx(ctx context.Context, tx *sqlx.Tx) ([]models.ScheduleEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction provided")
	}
	const query = `SELECT id, day, hour, class_id, subject_id, teacher_id, created_at FROM schedule_entries ORDER BY id ASC`
	var entries []models.ScheduleEntry
	if err := tx.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list schedule entries in tx: %w", err)
	}
	return entries, nil
}

// MaxSequence returns the largest numeric suffix among ids carrying prefix, or 0.
func (r *ScheduleEntryRepository) MaxSequence(ctx context.Context, tx *sqlx.Tx, prefix string) (int, error) {
	if tx == nil {
		return 0, fmt.Errorf("nil transaction provided")
	}
	// $2 is cast so postgres resolves substring(text, integer) rather than the regex form.
	const query = `SELECT COALESCE(MAX(CASE WHEN SUBSTRING(id FROM $2::int) ~ '^[0-9]+$' THEN CAST(SUBSTRING(id FROM $2::int) AS BIGINT) END), 0)
FROM schedule_entries WHERE id LIKE $1`
	var seq int
	if err := tx.GetContext(ctx, &seq, query, likePrefix(prefix), len(prefix)+1); err != nil {
		return 0, fmt.Errorf("max schedule sequence: %w", err)
	}
	return seq, nil
}

// InsertBatch inserts entries using an existing transaction.
func (r *ScheduleEntryRepository) InsertBatch(ctx context.Context, tx *sqlx.Tx, entries []models.ScheduleEntry) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insertScheduleEntry, &entries[i]); err != nil {
			return fmt.Errorf("insert schedule entry %s: %w", entries[i].ID, err)
		}
	}
	return nil
}

// DeleteAll removes every persisted row within tx and reports how many were deleted.
func (r *ScheduleEntryRepository) DeleteAll(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("nil transaction provided")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries`)
	if err != nil {
		return 0, fmt.Errorf("delete schedule entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted schedule entries: %w", err)
	}
	return affected, nil
}

func likePrefix(prefix string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return escaper.Replace(prefix) + "%"
}
