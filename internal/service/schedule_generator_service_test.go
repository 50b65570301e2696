package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestScheduleGeneratorServiceGenerateUsesStoredConfig(t *testing.T) {
	svc, _, _ := newGeneratorFixture(t, ScheduleGeneratorConfig{})
	seed := int64(42)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{Seed: &seed})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, seed, resp.Seed)
	assert.Equal(t, []string{"Senin", "Selasa"}, resp.Days)
	assert.Equal(t, 4, resp.Summary.Slots)
	assert.Equal(t, resp.Summary.Slots, resp.Summary.Filled+resp.Summary.Failed)
	assert.Len(t, resp.Generated, 4)
	assert.NotNil(t, resp.LinearWarnings)
}

func TestScheduleGeneratorServiceGenerateIsDeterministicForSeed(t *testing.T) {
	svc, _, _ := newGeneratorFixture(t, ScheduleGeneratorConfig{Seed: 7})

	first, err := svc.Generate(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(7), first.Seed)
	assert.Equal(t, first.Generated, second.Generated)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestScheduleGeneratorServiceGenerateValidatesDays(t *testing.T) {
	svc, _, _ := newGeneratorFixture(t, ScheduleGeneratorConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateRequest{Days: []string{"Minggu"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Generate(context.Background(), dto.GenerateRequest{Days: []string{"Senin"}, HoursByDay: map[string]int{"Senin": -1}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{Days: []string{"Selasa"}, HoursByDay: map[string]int{"Selasa": 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.Slots)
}

func TestScheduleGeneratorServiceGenerateWithoutConfig(t *testing.T) {
	svc, inputs, _ := newGeneratorFixture(t, ScheduleGeneratorConfig{})
	inputs.cfg = nil

	_, err := svc.Generate(context.Background(), dto.GenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{Days: []string{"Rabu"}, HoursByDay: map[string]int{"Rabu": 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Summary.Slots)
}

func TestScheduleGeneratorServiceReadiness(t *testing.T) {
	svc, inputs, _ := newGeneratorFixture(t, ScheduleGeneratorConfig{})

	resp, err := svc.Readiness(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Ready)
	assert.Len(t, resp.Checks, 4)

	inputs.cfg = nil
	resp, err = svc.Readiness(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Ready)
}

func TestScheduleGeneratorServiceApplyEmptyRows(t *testing.T) {
	svc, _, _ := newGeneratorFixture(t, ScheduleGeneratorConfig{})

	_, err := svc.Apply(context.Background(), dto.ApplyRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "no generated schedule to apply", appErr.Message)

	_, err = svc.Apply(context.Background(), dto.ApplyRequest{RunID: "missing"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceApplyAssignsSequentialIDs(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{ValidateOnApply: true})
	db, mock := newTxProviderMock(t)
	svc.tx = db
	entries.maxSeq = 9

	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.Apply(context.Background(), dto.ApplyRequest{Rows: []dto.ApplyRow{
		{Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
		{Day: "Senin", Hour: 2, ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
	}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Count)
	require.Len(t, entries.inserted, 2)
	assert.Equal(t, "J010", entries.inserted[0].ID)
	assert.Equal(t, "J011", entries.inserted[1].ID)
	assert.True(t, entries.locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceApplyFromRun(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{IDPrefix: "JD", IDWidth: 4})
	db, mock := newTxProviderMock(t)
	svc.tx = db

	gen, err := svc.Generate(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := svc.Apply(context.Background(), dto.ApplyRequest{RunID: gen.RunID})
	require.NoError(t, err)
	assert.Equal(t, len(gen.Generated), res.Count)
	assert.Equal(t, "JD0001", entries.inserted[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.Apply(context.Background(), dto.ApplyRequest{RunID: gen.RunID})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code, "a run is consumed by apply")
}

func TestScheduleGeneratorServiceApplyRunOnceUnderConcurrency(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{})
	db, mock := newTxProviderMock(t)
	svc.tx = db

	gen, err := svc.Generate(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Apply(context.Background(), dto.ApplyRequest{RunID: gen.RunID})
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, err := range errs {
		if err == nil {
			applied++
			continue
		}
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	}
	assert.Equal(t, 1, applied)
	assert.Len(t, entries.inserted, len(gen.Generated))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceApplyKeepsRunAfterFailure(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{})
	db, mock := newTxProviderMock(t)
	svc.tx = db

	gen, err := svc.Generate(context.Background(), dto.GenerateRequest{})
	require.NoError(t, err)

	entries.insertErr = errors.New("db down")
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Apply(context.Background(), dto.ApplyRequest{RunID: gen.RunID})
	require.Error(t, err)

	entries.insertErr = nil
	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := svc.Apply(context.Background(), dto.ApplyRequest{RunID: gen.RunID})
	require.NoError(t, err)
	assert.Equal(t, len(gen.Generated), res.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceApplyRejectsConflicts(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{ValidateOnApply: true})
	db, mock := newTxProviderMock(t)
	svc.tx = db
	entries.existing = []models.ScheduleEntry{{ID: "J001", Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t9"}}

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Apply(context.Background(), dto.ApplyRequest{Rows: []dto.ApplyRow{
		{Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	var conflictErr *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflictErr))
	require.Len(t, conflictErr.Errors, 1)
	assert.Equal(t, "J001", conflictErr.Errors[0].ScheduleID)
	assert.Equal(t, scheduler.DimensionClass, conflictErr.Errors[0].Dimension)
	assert.Empty(t, entries.inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceApplySkipsConflictCheckWhenDisabled(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{ValidateOnApply: false})
	db, mock := newTxProviderMock(t)
	svc.tx = db
	entries.existing = []models.ScheduleEntry{{ID: "J001", Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t1"}}
	entries.maxSeq = 1

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Apply(context.Background(), dto.ApplyRequest{Rows: []dto.ApplyRow{
		{Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "J002", entries.inserted[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceApplyRollsBackOnInsertError(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{})
	db, mock := newTxProviderMock(t)
	svc.tx = db
	entries.insertErr = errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Apply(context.Background(), dto.ApplyRequest{Rows: []dto.ApplyRow{
		{Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.True(t, errors.Is(err, entries.insertErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceReset(t *testing.T) {
	svc, _, entries := newGeneratorFixture(t, ScheduleGeneratorConfig{})
	db, mock := newTxProviderMock(t)
	svc.tx = db
	entries.deleted = 12

	mock.ExpectBegin()
	mock.ExpectCommit()
	res, err := svc.Reset(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 12, res.Count)
	assert.True(t, entries.locked, "reset holds the schedule write lock")

	entries.deleteErr = errors.New("db down")
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Reset(context.Background())
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceResetWithoutTxProvider(t *testing.T) {
	svc, _, _ := newGeneratorFixture(t, ScheduleGeneratorConfig{})
	svc.tx = nil

	_, err := svc.Reset(context.Background())
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestFormatScheduleID(t *testing.T) {
	assert.Equal(t, "J001", FormatScheduleID("J", 3, 1))
	assert.Equal(t, "J999", FormatScheduleID("J", 3, 999))
	assert.Equal(t, "J1000", FormatScheduleID("J", 3, 1000))
}

// --- Fixtures ---

func newGeneratorFixture(t *testing.T, cfg ScheduleGeneratorConfig) (*ScheduleGeneratorService, *inputSourceStub, *entryWriterStub) {
	t.Helper()
	inputs := &inputSourceStub{
		in: scheduler.Input{
			Teachers:        []scheduler.Teacher{{ID: "t1", Name: "Ahmad"}},
			Classes:         []scheduler.Class{{ID: "c1", Name: "X-A"}},
			TeacherSubjects: []scheduler.TeacherSubject{{TeacherID: "t1", SubjectID: "math", Priority: 1}},
			ClassSubjects:   []scheduler.ClassSubject{{ClassID: "c1", SubjectID: "math", HoursPerWeek: 4}},
		},
		cfg: &models.ScheduleConfig{Days: []string{"Senin", "Selasa"}, HoursByDay: map[string]int{"Senin": 2, "Selasa": 2}, SlotDuration: 45},
	}
	entries := &entryWriterStub{}
	svc := NewScheduleGeneratorService(inputs, entries, noopTxProvider{}, NewMetricsService(), nil, zap.NewNop(), cfg)
	return svc, inputs, entries
}

func newTxProviderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type inputSourceStub struct {
	in  scheduler.Input
	cfg *models.ScheduleConfig
}

func (s *inputSourceStub) LoadInput(ctx context.Context) (scheduler.Input, error) {
	return s.in, nil
}

func (s *inputSourceStub) GetScheduleConfig(ctx context.Context) (*models.ScheduleConfig, error) {
	return s.cfg, nil
}

type entryWriterStub struct {
	locked    bool
	existing  []models.ScheduleEntry
	maxSeq    int
	inserted  []models.ScheduleEntry
	insertErr error
	deleted   int64
	deleteErr error
}

func (s *entryWriterStub) LockForWrite(ctx context.Context, tx *sqlx.Tx) error {
	s.locked = true
	return nil
}

func (s *entryWriterStub) ListWithTx(ctx context.Context, tx *sqlx.Tx) ([]models.ScheduleEntry, error) {
	return s.existing, nil
}

func (s *entryWriterStub) MaxSequence(ctx context.Context, tx *sqlx.Tx, prefix string) (int, error) {
	return s.maxSeq, nil
}

func (s *entryWriterStub) InsertBatch(ctx context.Context, tx *sqlx.Tx, entries []models.ScheduleEntry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, entries...)
	return nil
}

func (s *entryWriterStub) DeleteAll(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	return s.deleted, s.deleteErr
}
