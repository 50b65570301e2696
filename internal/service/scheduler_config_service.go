package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const (
	metaCachePrefix  = "scheduler:meta:"
	metaCachePattern = metaCachePrefix + "*"
	maxHoursPerDay   = 16
)

type teacherLister interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type subjectLister interface {
	ListActive(ctx context.Context) ([]models.Subject, error)
}

type classLister interface {
	List(ctx context.Context) ([]models.Class, error)
}

type teacherSubjectStore interface {
	List(ctx context.Context) ([]models.TeacherSubject, error)
	Replace(ctx context.Context, teacherID string, entries []models.TeacherSubject) error
}

type classSubjectStore interface {
	List(ctx context.Context) ([]models.ClassSubject, error)
	ReplaceForClass(ctx context.Context, classID string, entries []models.ClassSubject) error
	ReplaceAll(ctx context.Context, entries []models.ClassSubject) error
}

type teacherLimitStore interface {
	List(ctx context.Context) ([]models.TeacherLimit, error)
	Upsert(ctx context.Context, limit models.TeacherLimit) error
	BulkUpsert(ctx context.Context, limits []models.TeacherLimit) error
}

type scheduleConfigStore interface {
	Get(ctx context.Context, name string) (*models.ScheduleConfig, error)
	Upsert(ctx context.Context, name string, cfg models.ScheduleConfig) error
}

// SchedulerStores groups the configuration store repositories.
type SchedulerStores struct {
	Teachers        teacherLister
	Subjects        subjectLister
	Classes         classLister
	TeacherSubjects teacherSubjectStore
	ClassSubjects   classSubjectStore
	TeacherLimits   teacherLimitStore
	Configs         scheduleConfigStore
}

// SchedulerConfigOptions tunes the configuration service.
type SchedulerConfigOptions struct {
	ConfigName   string
	MetaCacheTTL time.Duration
}

// SchedulerConfigService reads and writes everything the generator consumes.
type SchedulerConfigService struct {
	stores    SchedulerStores
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	opts      SchedulerConfigOptions
}

// NewSchedulerConfigService constructs the service.
func NewSchedulerConfigService(stores SchedulerStores, cache *CacheService, validate *validator.Validate, logger *zap.Logger, opts SchedulerConfigOptions) *SchedulerConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ConfigName == "" {
		opts.ConfigName = models.DefaultScheduleConfigName
	}
	if opts.MetaCacheTTL <= 0 {
		opts.MetaCacheTTL = 30 * time.Second
	}
	return &SchedulerConfigService{stores: stores, cache: cache, validator: validate, logger: logger, opts: opts}
}

// Meta returns every configuration list, served from cache when warm.
func (s *SchedulerConfigService) Meta(ctx context.Context) (*dto.SchedulerMetaResponse, error) {
	ttl := s.opts.MetaCacheTTL
	teachers, err := Remember(ctx, s.cache, metaCachePrefix+"teachers", ttl, s.stores.Teachers.ListActive)
	if err != nil {
		return nil, s.internal(err, "failed to load teachers")
	}
	subjects, err := Remember(ctx, s.cache, metaCachePrefix+"subjects", ttl, s.stores.Subjects.ListActive)
	if err != nil {
		return nil, s.internal(err, "failed to load subjects")
	}
	classes, err := Remember(ctx, s.cache, metaCachePrefix+"classes", ttl, s.stores.Classes.List)
	if err != nil {
		return nil, s.internal(err, "failed to load classes")
	}
	teacherSubjects, err := Remember(ctx, s.cache, metaCachePrefix+"teacher_subjects", ttl, s.stores.TeacherSubjects.List)
	if err != nil {
		return nil, s.internal(err, "failed to load teacher subjects")
	}
	classSubjects, err := Remember(ctx, s.cache, metaCachePrefix+"class_subjects", ttl, s.stores.ClassSubjects.List)
	if err != nil {
		return nil, s.internal(err, "failed to load class subjects")
	}
	limits, err := Remember(ctx, s.cache, metaCachePrefix+"teacher_limits", ttl, s.stores.TeacherLimits.List)
	if err != nil {
		return nil, s.internal(err, "failed to load teacher limits")
	}
	cfg, err := s.GetScheduleConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.SchedulerMetaResponse{
		Teachers:        nonNil(teachers),
		Subjects:        nonNil(subjects),
		Classes:         nonNil(classes),
		TeacherSubjects: nonNil(teacherSubjects),
		ClassSubjects:   nonNil(classSubjects),
		TeacherLimits:   nonNil(limits),
		Config:          cfg,
	}, nil
}

// LoadInput reads the store directly, bypassing the metadata cache, and
// converts it into engine input.
func (s *SchedulerConfigService) LoadInput(ctx context.Context) (scheduler.Input, error) {
	var in scheduler.Input

	teachers, err := s.stores.Teachers.ListActive(ctx)
	if err != nil {
		return in, s.internal(err, "failed to load teachers")
	}
	classes, err := s.stores.Classes.List(ctx)
	if err != nil {
		return in, s.internal(err, "failed to load classes")
	}
	teacherSubjects, err := s.stores.TeacherSubjects.List(ctx)
	if err != nil {
		return in, s.internal(err, "failed to load teacher subjects")
	}
	classSubjects, err := s.stores.ClassSubjects.List(ctx)
	if err != nil {
		return in, s.internal(err, "failed to load class subjects")
	}
	limits, err := s.stores.TeacherLimits.List(ctx)
	if err != nil {
		return in, s.internal(err, "failed to load teacher limits")
	}

	in.Teachers = make([]scheduler.Teacher, 0, len(teachers))
	for _, t := range teachers {
		in.Teachers = append(in.Teachers, scheduler.Teacher{ID: t.ID, Name: t.Name})
	}
	in.Classes = make([]scheduler.Class, 0, len(classes))
	for _, c := range classes {
		in.Classes = append(in.Classes, scheduler.Class{ID: c.ID, Name: c.Name})
	}
	in.TeacherSubjects = make([]scheduler.TeacherSubject, 0, len(teacherSubjects))
	for _, ts := range teacherSubjects {
		in.TeacherSubjects = append(in.TeacherSubjects, scheduler.TeacherSubject{TeacherID: ts.TeacherID, SubjectID: ts.SubjectID, Priority: ts.Priority})
	}
	in.ClassSubjects = make([]scheduler.ClassSubject, 0, len(classSubjects))
	for _, cs := range classSubjects {
		in.ClassSubjects = append(in.ClassSubjects, scheduler.ClassSubject{ClassID: cs.ClassID, SubjectID: cs.SubjectID, HoursPerWeek: cs.HoursPerWeek})
	}
	in.TeacherLimits = make([]scheduler.TeacherLimit, 0, len(limits))
	for _, l := range limits {
		in.TeacherLimits = append(in.TeacherLimits, scheduler.TeacherLimit{
			TeacherID:       l.TeacherID,
			MaxHoursPerWeek: l.MaxHoursPerWeek,
			MaxHoursPerDay:  l.MaxHoursPerDay,
			MinHoursLinier:  l.MinHoursLinier,
		})
	}
	return in, nil
}

// GetScheduleConfig returns the active grid configuration or nil when none is saved.
func (s *SchedulerConfigService) GetScheduleConfig(ctx context.Context) (*models.ScheduleConfig, error) {
	cfg, err := s.stores.Configs.Get(ctx, s.opts.ConfigName)
	if err != nil {
		return nil, s.internal(err, "failed to load schedule config")
	}
	return cfg, nil
}

// UpsertScheduleConfig validates and stores the active grid configuration.
func (s *SchedulerConfigService) UpsertScheduleConfig(ctx context.Context, req dto.ScheduleConfigRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule config payload")
	}
	if err := validateScheduleConfig(req); err != nil {
		return nil, err
	}

	cfg := models.ScheduleConfig{
		Days:           req.Days,
		HoursByDay:     make(map[string]int, len(req.Days)),
		SlotDuration:   req.SlotDuration,
		StartTimeByDay: make(map[string]string, len(req.StartTimeByDay)),
	}
	for _, day := range req.Days {
		cfg.HoursByDay[day] = req.HoursByDay[day]
		if start, ok := req.StartTimeByDay[day]; ok {
			cfg.StartTimeByDay[day] = start
		}
	}

	if err := s.stores.Configs.Upsert(ctx, s.opts.ConfigName, cfg); err != nil {
		return nil, s.internal(err, "failed to save schedule config")
	}
	s.invalidate(ctx)
	return &dto.MutationResult{Success: true, Message: "schedule config saved"}, nil
}

// UpsertTeacherSubjects replaces a teacher's subject list. Duplicate subjects keep
// their first position and take the last priority given.
func (s *SchedulerConfigService) UpsertTeacherSubjects(ctx context.Context, teacherID string, req dto.TeacherSubjectsRequest) (*dto.MutationResult, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher subjects payload")
	}

	items := req.Subjects
	if len(items) == 0 {
		for i, id := range req.SubjectIDs {
			items = append(items, dto.SubjectPriorityRequest{SubjectID: id, Priority: i + 1})
		}
	}

	position := make(map[string]int, len(items))
	entries := make([]models.TeacherSubject, 0, len(items))
	for _, item := range items {
		priority := item.Priority
		if priority <= 0 {
			priority = scheduler.LinearPriority
		}
		if i, ok := position[item.SubjectID]; ok {
			entries[i].Priority = priority
			continue
		}
		position[item.SubjectID] = len(entries)
		entries = append(entries, models.TeacherSubject{TeacherID: teacherID, SubjectID: item.SubjectID, Priority: priority})
	}

	if err := s.stores.TeacherSubjects.Replace(ctx, teacherID, entries); err != nil {
		return nil, s.internal(err, "failed to update teacher subjects")
	}
	s.invalidate(ctx)
	return &dto.MutationResult{Success: true, Message: "teacher subject mapping updated", Count: len(entries)}, nil
}

// UpsertClassSubjects replaces the quotas of one class.
func (s *SchedulerConfigService) UpsertClassSubjects(ctx context.Context, classID string, req dto.ClassSubjectsRequest) (*dto.MutationResult, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class subjects payload")
	}

	mappings := make([]dto.ClassSubjectMapping, 0, len(req.Subjects))
	for _, item := range req.Subjects {
		mappings = append(mappings, dto.ClassSubjectMapping{ClassID: classID, SubjectID: item.SubjectID, HoursPerWeek: item.HoursPerWeek})
	}
	entries := classSubjectEntries(mappings)

	if err := s.stores.ClassSubjects.ReplaceForClass(ctx, classID, entries); err != nil {
		return nil, s.internal(err, "failed to update class subjects")
	}
	s.invalidate(ctx)
	return &dto.MutationResult{Success: true, Message: "class subject mapping updated", Count: len(entries)}, nil
}

// UpsertClassSubjectsMatrix replaces the entire class-subject matrix.
func (s *SchedulerConfigService) UpsertClassSubjectsMatrix(ctx context.Context, req dto.ClassSubjectsMatrixRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class subject matrix payload")
	}
	entries := classSubjectEntries(req.Mappings)

	if err := s.stores.ClassSubjects.ReplaceAll(ctx, entries); err != nil {
		return nil, s.internal(err, "failed to update class subject matrix")
	}
	s.invalidate(ctx)
	return &dto.MutationResult{Success: true, Message: "class subject matrix updated", Count: len(entries)}, nil
}

// UpsertTeacherLimit sets one teacher's load bounds.
func (s *SchedulerConfigService) UpsertTeacherLimit(ctx context.Context, teacherID string, req dto.TeacherLimitRequest) (*dto.MutationResult, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher limit payload")
	}

	limit := models.TeacherLimit{TeacherID: teacherID, MaxHoursPerWeek: req.MaxWeek, MaxHoursPerDay: req.MaxDay, MinHoursLinier: req.MinLinier}
	if err := s.stores.TeacherLimits.Upsert(ctx, limit); err != nil {
		return nil, s.internal(err, "failed to update teacher limit")
	}
	s.invalidate(ctx)
	return &dto.MutationResult{Success: true, Message: "teacher limit updated", Count: 1}, nil
}

// UpsertTeacherLimitsBulk sets many teachers' bounds in one transaction. An
// empty list succeeds without touching the store.
func (s *SchedulerConfigService) UpsertTeacherLimitsBulk(ctx context.Context, req dto.TeacherLimitsBulkRequest) (*dto.MutationResult, error) {
	if len(req.Limits) == 0 {
		return &dto.MutationResult{Success: true, Message: "no teacher limits to update"}, nil
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher limits payload")
	}

	limits := make([]models.TeacherLimit, 0, len(req.Limits))
	for _, item := range req.Limits {
		limits = append(limits, models.TeacherLimit{
			TeacherID:       item.TeacherID,
			MaxHoursPerWeek: item.MaxWeek,
			MaxHoursPerDay:  item.MaxDay,
			MinHoursLinier:  item.MinLinier,
		})
	}
	if err := s.stores.TeacherLimits.BulkUpsert(ctx, limits); err != nil {
		return nil, s.internal(err, "failed to update teacher limits")
	}
	s.invalidate(ctx)
	return &dto.MutationResult{Success: true, Message: fmt.Sprintf("%d teacher limits updated", len(limits)), Count: len(limits)}, nil
}

func (s *SchedulerConfigService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, metaCachePattern); err != nil {
		s.logger.Warn("scheduler meta cache not invalidated", zap.Error(err))
	}
}

func (s *SchedulerConfigService) internal(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validateScheduleConfig(req dto.ScheduleConfigRequest) error {
	for _, day := range req.Days {
		hours, ok := req.HoursByDay[day]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("hoursByDay is missing %s", day))
		}
		if hours < 0 || hours > maxHoursPerDay {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("hoursByDay[%s] must be between 0 and %d", day, maxHoursPerDay))
		}
	}
	for day, start := range req.StartTimeByDay {
		if _, err := time.Parse("15:04", start); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("startTimeByDay[%s] must be HH:MM", day))
		}
	}
	return nil
}

// classSubjectEntries collapses duplicate class/subject pairs, last quota wins.
func classSubjectEntries(mappings []dto.ClassSubjectMapping) []models.ClassSubject {
	type key struct{ class, subject string }
	position := make(map[key]int, len(mappings))
	entries := make([]models.ClassSubject, 0, len(mappings))
	for _, m := range mappings {
		hours := m.HoursPerWeek
		if hours <= 0 {
			hours = scheduler.DefaultHoursPerWeek
		}
		k := key{m.ClassID, m.SubjectID}
		if i, ok := position[k]; ok {
			entries[i].HoursPerWeek = hours
			continue
		}
		position[k] = len(entries)
		entries = append(entries, models.ClassSubject{ClassID: m.ClassID, SubjectID: m.SubjectID, HoursPerWeek: hours})
	}
	return entries
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
