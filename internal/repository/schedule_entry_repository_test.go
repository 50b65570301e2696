package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestScheduleEntryRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "day", "hour", "class_id", "subject_id", "teacher_id", "created_at", "class_name", "subject_name", "teacher_name"}).
		AddRow("J001", "Senin", 1, "c1", "s1", "t1", time.Now(), "X-A", "Matematika", "Ahmad")
	mock.ExpectQuery("SELECT se.id, se.day, se.hour").
		WithArgs("Senin", "c1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	entries, err := NewScheduleEntryRepository(db).List(context.Background(),
		models.ScheduleEntryFilter{Day: "Senin", ClassID: "c1"}, []string{"Senin", "Selasa"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "J001", entries[0].ID)
	require.NotNil(t, entries[0].TeacherName)
	assert.Equal(t, "Ahmad", *entries[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryApplyFlow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, day, hour, class_id, subject_id, teacher_id, created_at FROM schedule_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id", "day", "hour", "class_id", "subject_id", "teacher_id", "created_at"}).
			AddRow("J007", "Senin", 1, "c1", "s1", "t1", time.Now()))
	mock.ExpectQuery(`SUBSTRING\(id FROM \$2::int\) ~ '\^\[0-9\]\+\$' THEN CAST\(SUBSTRING\(id FROM \$2::int\) AS BIGINT\)`).
		WithArgs("J%", 2).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(7))
	mock.ExpectExec("INSERT INTO schedule_entries").
		WithArgs("J008", "Senin", 2, "c1", "s2", "t2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.LockForWrite(context.Background(), tx))

	existing, err := repo.ListWithTx(context.Background(), tx)
	require.NoError(t, err)
	assert.Len(t, existing, 1)

	seq, err := repo.MaxSequence(context.Background(), tx, "J")
	require.NoError(t, err)
	assert.Equal(t, 7, seq)

	entries := []models.ScheduleEntry{{ID: "J008", Day: "Senin", Hour: 2, ClassID: "c1", SubjectID: "s2", TeacherID: "t2"}}
	require.NoError(t, repo.InsertBatch(context.Background(), tx, entries))
	assert.False(t, entries[0].CreatedAt.IsZero())
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEntryRepositoryRequiresTx(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	assert.Error(t, repo.LockForWrite(context.Background(), nil))
	_, err := repo.MaxSequence(context.Background(), nil, "J")
	assert.Error(t, err)
	assert.Error(t, repo.InsertBatch(context.Background(), nil, nil))
}

func TestScheduleEntryRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEntryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schedule_entries").WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.LockForWrite(context.Background(), tx))
	deleted, err := repo.DeleteAll(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.DeleteAll(context.Background(), nil)
	assert.Error(t, err)
}

func TestLikePrefixEscapesWildcards(t *testing.T) {
	assert.Equal(t, "J%", likePrefix("J"))
	assert.Equal(t, `J\_A%`, likePrefix("J_A"))
}
