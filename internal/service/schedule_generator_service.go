package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type schedulerInputSource interface {
	LoadInput(ctx context.Context) (scheduler.Input, error)
	GetScheduleConfig(ctx context.Context) (*models.ScheduleConfig, error)
}

type scheduleEntryWriter interface {
	LockForWrite(ctx context.Context, tx *sqlx.Tx) error
	ListWithTx(ctx context.Context, tx *sqlx.Tx) ([]models.ScheduleEntry, error)
	MaxSequence(ctx context.Context, tx *sqlx.Tx, prefix string) (int, error)
	InsertBatch(ctx context.Context, tx *sqlx.Tx, entries []models.ScheduleEntry) error
	DeleteAll(ctx context.Context, tx *sqlx.Tx) (int64, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	// Seed fixes the shuffle source when a request omits one. Zero means clock-seeded.
	Seed            int64
	IDPrefix        string
	IDWidth         int
	ValidateOnApply bool
	RunTTL          time.Duration
}

// ScheduleGeneratorService runs the engine and owns the apply/reset lifecycle.
type ScheduleGeneratorService struct {
	inputs    schedulerInputSource
	entries   scheduleEntryWriter
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
	runs      *runStore

	// writeMu serialises Apply and Reset within this process; the advisory
	// lock taken in Apply covers other replicas.
	writeMu sync.Mutex
	now     func() time.Time
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	inputs schedulerInputSource,
	entries scheduleEntryWriter,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "J"
	}
	if cfg.IDWidth <= 0 {
		cfg.IDWidth = 3
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 30 * time.Minute
	}
	return &ScheduleGeneratorService{
		inputs:    inputs,
		entries:   entries,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		runs:      newRunStore(cfg.RunTTL),
		now:       time.Now,
	}
}

// Generate builds a timetable proposal. Nothing is persisted.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}
	days, hoursByDay, err := s.resolveGrid(ctx, req, true)
	if err != nil {
		return nil, err
	}
	in, err := s.inputs.LoadInput(ctx)
	if err != nil {
		return nil, err
	}

	seed := s.seedFor(req)
	started := s.now()
	result := scheduler.Generate(in, days, hoursByDay, scheduler.NewSeededRand(seed))
	elapsed := s.now().Sub(started)

	runID := uuid.NewString()
	s.runs.Save(generationRun{id: runID, rows: result.Schedule, createdAt: s.now()})
	s.metrics.ObserveGeneration(len(result.Schedule), len(result.Failed), len(result.LinearWarnings), elapsed)
	s.logger.Info("schedule generated",
		zap.String("run_id", runID),
		zap.Int64("seed", seed),
		zap.Strings("days", days),
		zap.Int("filled", len(result.Schedule)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("linear_warnings", len(result.LinearWarnings)),
		zap.Duration("elapsed", elapsed),
	)

	return &dto.GenerateResponse{
		RunID:          runID,
		Seed:           seed,
		Days:           days,
		HoursByDay:     hoursByDay,
		Generated:      result.Schedule,
		Failed:         result.Failed,
		FailedByClass:  result.FailedByClass,
		LinearWarnings: result.LinearWarnings,
		Summary: dto.GenerateSummary{
			Slots:  result.Slots(),
			Filled: len(result.Schedule),
			Failed: len(result.Failed),
		},
	}, nil
}

// Readiness reports whether the stored configuration can produce a schedule.
func (s *ScheduleGeneratorService) Readiness(ctx context.Context, req dto.GenerateRequest) (*dto.ReadinessResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid readiness payload")
	}
	days, hoursByDay, err := s.resolveGrid(ctx, req, false)
	if err != nil {
		return nil, err
	}
	in, err := s.inputs.LoadInput(ctx)
	if err != nil {
		return nil, err
	}
	report := scheduler.Readiness(days, hoursByDay, in)
	return &dto.ReadinessResponse{Ready: report.Ready(), Checks: report.Checks}, nil
}

// Apply persists generated rows with fresh sequential identifiers in one
// transaction. Rows come from the request, or from a recent run when only
// runId is given.
func (s *ScheduleGeneratorService) Apply(ctx context.Context, req dto.ApplyRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObserveApply("rejected", 0)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid apply payload")
	}

	rows := make([]scheduler.Entry, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, row.Entry())
	}
	if len(rows) == 0 && req.RunID == "" {
		s.metrics.ObserveApply("rejected", 0)
		return nil, appErrors.Clone(appErrors.ErrValidation, "no generated schedule to apply")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	// The run is resolved and consumed under writeMu so one run applies at most once.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	fromRun := false
	if len(rows) == 0 {
		run, ok := s.runs.Get(req.RunID)
		if !ok {
			s.metrics.ObserveApply("rejected", 0)
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found or expired")
		}
		if len(run.rows) == 0 {
			s.metrics.ObserveApply("rejected", 0)
			return nil, appErrors.Clone(appErrors.ErrValidation, "no generated schedule to apply")
		}
		rows = run.rows
		fromRun = true
	}

	count, err := s.applyRows(ctx, rows)
	if err != nil {
		result := "error"
		if appErrors.FromError(err).Code == appErrors.ErrConflict.Code {
			result = "conflict"
		}
		s.metrics.ObserveApply(result, 0)
		return nil, err
	}

	if fromRun {
		s.runs.Delete(req.RunID)
	}
	s.metrics.ObserveApply("success", count)
	s.logger.Info("schedule applied", zap.String("run_id", req.RunID), zap.Int("rows", count))
	return &dto.MutationResult{Success: true, Message: fmt.Sprintf("%d schedule rows applied", count), Count: count}, nil
}

func (s *ScheduleGeneratorService) applyRows(ctx context.Context, rows []scheduler.Entry) (count int, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.entries.LockForWrite(ctx, tx); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock schedule entries")
	}

	if s.cfg.ValidateOnApply {
		var existing []models.ScheduleEntry
		existing, err = s.entries.ListWithTx(ctx, tx)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load persisted schedule")
		}
		if conflicts := scheduler.Conflicts(storedEntries(existing), rows); len(conflicts) > 0 {
			err = conflictError(conflicts)
			return 0, err
		}
	}

	seq, err := s.entries.MaxSequence(ctx, tx, s.cfg.IDPrefix)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read schedule sequence")
	}

	records := make([]models.ScheduleEntry, 0, len(rows))
	createdAt := s.now().UTC()
	for i, row := range rows {
		records = append(records, models.ScheduleEntry{
			ID:        FormatScheduleID(s.cfg.IDPrefix, s.cfg.IDWidth, seq+i+1),
			Day:       row.Day,
			Hour:      row.Hour,
			ClassID:   row.ClassID,
			SubjectID: row.SubjectID,
			TeacherID: row.TeacherID,
			CreatedAt: createdAt,
		})
	}

	if err = s.entries.InsertBatch(ctx, tx, records); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule rows")
	}
	if err = tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule rows")
	}
	return len(records), nil
}

// Reset deletes every persisted schedule row.
func (s *ScheduleGeneratorService) Reset(ctx context.Context) (*dto.MutationResult, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deleted, err := s.resetRows(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("schedule reset", zap.Int64("rows", deleted))
	return &dto.MutationResult{Success: true, Message: "schedule reset", Count: int(deleted)}, nil
}

// resetRows deletes under the same advisory lock applyRows takes so a reset
// never interleaves with an apply from another instance.
func (s *ScheduleGeneratorService) resetRows(ctx context.Context) (deleted int64, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.entries.LockForWrite(ctx, tx); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock schedule entries")
	}
	deleted, err = s.entries.DeleteAll(ctx, tx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset schedule")
	}
	if err = tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reset")
	}
	return deleted, nil
}

// resolveGrid merges the request with the stored configuration. In strict
// mode a missing grid is an error; otherwise it yields empty days so the
// readiness checks can report it.
func (s *ScheduleGeneratorService) resolveGrid(ctx context.Context, req dto.GenerateRequest, strict bool) ([]string, map[string]int, error) {
	cfg, err := s.inputs.GetScheduleConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	days := req.Days
	if len(days) == 0 && cfg != nil {
		days = cfg.Days
	}
	if len(days) == 0 {
		if strict {
			return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no days requested and no schedule config saved")
		}
		return []string{}, map[string]int{}, nil
	}

	if cfg != nil && len(req.Days) > 0 {
		configured := make(map[string]struct{}, len(cfg.Days))
		for _, d := range cfg.Days {
			configured[d] = struct{}{}
		}
		for _, d := range req.Days {
			if _, ok := configured[d]; !ok {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %s is not in the schedule config", d))
			}
		}
	}

	hoursByDay := make(map[string]int, len(days))
	for _, d := range days {
		hours, ok := req.HoursByDay[d]
		if !ok && cfg != nil {
			hours = cfg.HoursByDay[d]
		}
		if hours < 0 {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("hoursByDay[%s] must not be negative", d))
		}
		hoursByDay[d] = hours
	}
	return days, hoursByDay, nil
}

func (s *ScheduleGeneratorService) seedFor(req dto.GenerateRequest) int64 {
	if req.Seed != nil {
		return *req.Seed
	}
	if s.cfg.Seed != 0 {
		return s.cfg.Seed
	}
	return s.now().UnixNano()
}

// FormatScheduleID renders a prefixed, zero-padded identifier. Values wider
// than width are rendered in full.
func FormatScheduleID(prefix string, width, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

func storedEntries(rows []models.ScheduleEntry) []scheduler.Stored {
	stored := make([]scheduler.Stored, 0, len(rows))
	for _, r := range rows {
		stored = append(stored, scheduler.Stored{
			ID:    r.ID,
			Entry: scheduler.Entry{Day: r.Day, Hour: r.Hour, ClassID: r.ClassID, SubjectID: r.SubjectID, TeacherID: r.TeacherID},
		})
	}
	return stored
}

func conflictError(conflicts []scheduler.Conflict) error {
	details := make([]models.ScheduleConflict, 0, len(conflicts))
	for _, c := range conflicts {
		details = append(details, models.ScheduleConflict{
			ScheduleID: c.ExistingID,
			Day:        c.Proposed.Day,
			Hour:       c.Proposed.Hour,
			ClassID:    c.Proposed.ClassID,
			SubjectID:  c.Proposed.SubjectID,
			TeacherID:  c.Proposed.TeacherID,
			Dimension:  c.Dimension,
		})
	}
	conflictErr := &models.ScheduleConflictError{
		Type:    "SCHEDULE_CONFLICT",
		Message: fmt.Sprintf("%d rows collide with scheduled entries", len(details)),
		Errors:  details,
	}
	return appErrors.Wrap(conflictErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "schedule conflicts detected")
}

// --- Generation runs ---

type generationRun struct {
	id        string
	rows      []scheduler.Entry
	createdAt time.Time
}

// runStore keeps recent proposals so Apply can reference them by run id.
type runStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]generationRun
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{ttl: ttl, items: make(map[string]generationRun)}
}

func (s *runStore) Save(run generationRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if time.Since(item.createdAt) > s.ttl {
			delete(s.items, id)
		}
	}
	s.items[run.id] = run
}

func (s *runStore) Get(id string) (generationRun, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return generationRun{}, false
	}
	if time.Since(run.createdAt) > s.ttl {
		s.Delete(id)
		return generationRun{}, false
	}
	return run, true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
