package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type schedulerConfigurator interface {
	Meta(ctx context.Context) (*dto.SchedulerMetaResponse, error)
	GetScheduleConfig(ctx context.Context) (*models.ScheduleConfig, error)
	UpsertScheduleConfig(ctx context.Context, req dto.ScheduleConfigRequest) (*dto.MutationResult, error)
	UpsertTeacherSubjects(ctx context.Context, teacherID string, req dto.TeacherSubjectsRequest) (*dto.MutationResult, error)
	UpsertClassSubjects(ctx context.Context, classID string, req dto.ClassSubjectsRequest) (*dto.MutationResult, error)
	UpsertClassSubjectsMatrix(ctx context.Context, req dto.ClassSubjectsMatrixRequest) (*dto.MutationResult, error)
	UpsertTeacherLimit(ctx context.Context, teacherID string, req dto.TeacherLimitRequest) (*dto.MutationResult, error)
	UpsertTeacherLimitsBulk(ctx context.Context, req dto.TeacherLimitsBulkRequest) (*dto.MutationResult, error)
}

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error)
	Readiness(ctx context.Context, req dto.GenerateRequest) (*dto.ReadinessResponse, error)
	Apply(ctx context.Context, req dto.ApplyRequest) (*dto.MutationResult, error)
	Reset(ctx context.Context) (*dto.MutationResult, error)
}

// SchedulerHandler exposes scheduler configuration and generation endpoints.
type SchedulerHandler struct {
	config    schedulerConfigurator
	generator scheduleGenerator
}

// NewSchedulerHandler constructs the handler.
func NewSchedulerHandler(config schedulerConfigurator, generator scheduleGenerator) *SchedulerHandler {
	return &SchedulerHandler{config: config, generator: generator}
}

// Meta godoc
// @Summary Scheduler configuration lists
// @Description Teachers, subjects, classes and their mappings used by the generator.
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scheduler/meta [get]
func (h *SchedulerHandler) Meta(c *gin.Context) {
	meta, err := h.config.Meta(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, meta)
}

// GetConfig godoc
// @Summary Get the weekly grid configuration
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scheduler/config [get]
func (h *SchedulerHandler) GetConfig(c *gin.Context) {
	cfg, err := h.config.GetScheduleConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cfg)
}

// PutConfig godoc
// @Summary Replace the weekly grid configuration
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleConfigRequest true "Schedule config"
// @Success 200 {object} response.Envelope
// @Router /scheduler/config [put]
func (h *SchedulerHandler) PutConfig(c *gin.Context) {
	var req dto.ScheduleConfigRequest
	if !bindJSON(c, &req, "invalid schedule config payload") {
		return
	}
	h.respondMutation(c, func(ctx context.Context) (*dto.MutationResult, error) {
		return h.config.UpsertScheduleConfig(ctx, req)
	})
}

// PutTeacherSubjects godoc
// @Summary Replace the subjects a teacher can teach
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.TeacherSubjectsRequest true "Teacher subjects"
// @Success 200 {object} response.Envelope
// @Router /scheduler/teacher-subjects/{teacherId} [put]
func (h *SchedulerHandler) PutTeacherSubjects(c *gin.Context) {
	var req dto.TeacherSubjectsRequest
	if !bindJSON(c, &req, "invalid teacher subjects payload") {
		return
	}
	teacherID := c.Param("teacherId")
	h.respondMutation(c, func(ctx context.Context) (*dto.MutationResult, error) {
		return h.config.UpsertTeacherSubjects(ctx, teacherID, req)
	})
}

// PutClassSubjects godoc
// @Summary Replace the weekly subject quotas of a class
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body dto.ClassSubjectsRequest true "Class subjects"
// @Success 200 {object} response.Envelope
// @Router /scheduler/class-subjects/{classId} [put]
func (h *SchedulerHandler) PutClassSubjects(c *gin.Context) {
	var req dto.ClassSubjectsRequest
	if !bindJSON(c, &req, "invalid class subjects payload") {
		return
	}
	classID := c.Param("classId")
	h.respondMutation(c, func(ctx context.Context) (*dto.MutationResult, error) {
		return h.config.UpsertClassSubjects(ctx, classID, req)
	})
}

// PutClassSubjectsMatrix godoc
// @Summary Replace the whole class-subject matrix
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.ClassSubjectsMatrixRequest true "Matrix"
// @Success 200 {object} response.Envelope
// @Router /scheduler/class-subjects-matrix [put]
func (h *SchedulerHandler) PutClassSubjectsMatrix(c *gin.Context) {
	var req dto.ClassSubjectsMatrixRequest
	if !bindJSON(c, &req, "invalid class subjects matrix payload") {
		return
	}
	h.respondMutation(c, func(ctx context.Context) (*dto.MutationResult, error) {
		return h.config.UpsertClassSubjectsMatrix(ctx, req)
	})
}

// PutTeacherLimit godoc
// @Summary Set load limits for a teacher
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.TeacherLimitRequest true "Limits"
// @Success 200 {object} response.Envelope
// @Router /scheduler/teacher-limit/{teacherId} [put]
func (h *SchedulerHandler) PutTeacherLimit(c *gin.Context) {
	var req dto.TeacherLimitRequest
	if !bindJSON(c, &req, "invalid teacher limit payload") {
		return
	}
	teacherID := c.Param("teacherId")
	h.respondMutation(c, func(ctx context.Context) (*dto.MutationResult, error) {
		return h.config.UpsertTeacherLimit(ctx, teacherID, req)
	})
}

// PutTeacherLimitsBulk godoc
// @Summary Set load limits for many teachers
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.TeacherLimitsBulkRequest true "Limits"
// @Success 200 {object} response.Envelope
// @Router /scheduler/teacher-limits-bulk [put]
func (h *SchedulerHandler) PutTeacherLimitsBulk(c *gin.Context) {
	var req dto.TeacherLimitsBulkRequest
	if !bindJSON(c, &req, "invalid teacher limits payload") {
		return
	}
	h.respondMutation(c, func(ctx context.Context) (*dto.MutationResult, error) {
		return h.config.UpsertTeacherLimitsBulk(ctx, req)
	})
}

// Readiness godoc
// @Summary Check whether the configuration can produce a schedule
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest false "Optional grid override"
// @Success 200 {object} response.Envelope
// @Router /scheduler/readiness [post]
func (h *SchedulerHandler) Readiness(c *gin.Context) {
	var req dto.GenerateRequest
	if !bindOptionalJSON(c, &req, "invalid readiness payload") {
		return
	}
	report, err := h.generator.Readiness(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Generate godoc
// @Summary Generate a timetable proposal
// @Description Runs the greedy slot assignment over the requested days. Nothing is persisted.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest false "Days, hours and seed"
// @Success 200 {object} response.Envelope
// @Router /scheduler/generate [post]
func (h *SchedulerHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if !bindOptionalJSON(c, &req, "invalid generate payload") {
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Apply godoc
// @Summary Persist a generated timetable
// @Description Inserts rows with fresh sequential ids in one transaction. Conflicts are listed under meta.conflicts.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.ApplyRequest true "Rows or run id"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scheduler/apply [post]
func (h *SchedulerHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if !bindJSON(c, &req, "invalid apply payload") {
		return
	}
	result, err := h.generator.Apply(c.Request.Context(), req)
	if err != nil {
		var conflictErr *models.ScheduleConflictError
		if errors.As(err, &conflictErr) {
			response.Error(c, err, map[string]interface{}{"conflicts": conflictErr.Errors})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Reset godoc
// @Summary Delete every persisted schedule row
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /scheduler/reset [post]
func (h *SchedulerHandler) Reset(c *gin.Context) {
	h.respondMutation(c, h.generator.Reset)
}

func (h *SchedulerHandler) respondMutation(c *gin.Context, run func(ctx context.Context) (*dto.MutationResult, error)) {
	result, err := run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body as the zero value.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dest, message)
}
