package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type schedulerConfiguratorMock struct {
	teacherID string
	subjects  dto.TeacherSubjectsRequest
	limits    dto.TeacherLimitsBulkRequest
	err       error
}

func (m *schedulerConfiguratorMock) Meta(ctx context.Context) (*dto.SchedulerMetaResponse, error) {
	return &dto.SchedulerMetaResponse{Teachers: []models.Teacher{{ID: "t1", Name: "Ahmad", Active: true}}}, m.err
}

func (m *schedulerConfiguratorMock) GetScheduleConfig(ctx context.Context) (*models.ScheduleConfig, error) {
	return &models.ScheduleConfig{Days: []string{"Senin"}}, m.err
}

func (m *schedulerConfiguratorMock) UpsertScheduleConfig(ctx context.Context, req dto.ScheduleConfigRequest) (*dto.MutationResult, error) {
	return m.result("schedule config saved")
}

func (m *schedulerConfiguratorMock) UpsertTeacherSubjects(ctx context.Context, teacherID string, req dto.TeacherSubjectsRequest) (*dto.MutationResult, error) {
	m.teacherID = teacherID
	m.subjects = req
	return m.result("teacher subjects updated")
}

func (m *schedulerConfiguratorMock) UpsertClassSubjects(ctx context.Context, classID string, req dto.ClassSubjectsRequest) (*dto.MutationResult, error) {
	return m.result("class subjects updated")
}

func (m *schedulerConfiguratorMock) UpsertClassSubjectsMatrix(ctx context.Context, req dto.ClassSubjectsMatrixRequest) (*dto.MutationResult, error) {
	return m.result("class subjects matrix updated")
}

func (m *schedulerConfiguratorMock) UpsertTeacherLimit(ctx context.Context, teacherID string, req dto.TeacherLimitRequest) (*dto.MutationResult, error) {
	m.teacherID = teacherID
	return m.result("teacher limit updated")
}

func (m *schedulerConfiguratorMock) UpsertTeacherLimitsBulk(ctx context.Context, req dto.TeacherLimitsBulkRequest) (*dto.MutationResult, error) {
	m.limits = req
	return m.result("teacher limits updated")
}

func (m *schedulerConfiguratorMock) result(message string) (*dto.MutationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.MutationResult{Success: true, Message: message}, nil
}

type scheduleGeneratorMock struct {
	generateReq dto.GenerateRequest
	applyReq    dto.ApplyRequest
	applyErr    error
	resetCalled bool
}

func (m *scheduleGeneratorMock) Generate(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	m.generateReq = req
	return &dto.GenerateResponse{
		RunID:     "run-1",
		Days:      []string{"Senin"},
		Generated: []scheduler.Entry{{Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t1"}},
		Summary:   dto.GenerateSummary{Slots: 1, Filled: 1},
	}, nil
}

func (m *scheduleGeneratorMock) Readiness(ctx context.Context, req dto.GenerateRequest) (*dto.ReadinessResponse, error) {
	return &dto.ReadinessResponse{Ready: true}, nil
}

func (m *scheduleGeneratorMock) Apply(ctx context.Context, req dto.ApplyRequest) (*dto.MutationResult, error) {
	m.applyReq = req
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	return &dto.MutationResult{Success: true, Message: "1 schedule rows applied", Count: len(req.Rows)}, nil
}

func (m *scheduleGeneratorMock) Reset(ctx context.Context) (*dto.MutationResult, error) {
	m.resetCalled = true
	return &dto.MutationResult{Success: true, Message: "schedule reset", Count: 3}, nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newSchedulerRouter(cfg *schedulerConfiguratorMock, gen *scheduleGeneratorMock, role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSchedulerHandler(cfg, gen)
	router := gin.New()
	if role != "" {
		router.Use(func(c *gin.Context) {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
			c.Next()
		})
	}
	writes := router.Group("/scheduler", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	router.GET("/scheduler/meta", h.Meta)
	writes.PUT("/teacher-subjects/:teacherId", h.PutTeacherSubjects)
	writes.PUT("/teacher-limits-bulk", h.PutTeacherLimitsBulk)
	writes.POST("/generate", h.Generate)
	writes.POST("/readiness", h.Readiness)
	writes.POST("/apply", h.Apply)
	writes.POST("/reset", h.Reset)
	return router
}

func perform(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSchedulerHandlerMeta(t *testing.T) {
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, &scheduleGeneratorMock{}, "")

	w := perform(router, http.MethodGet, "/scheduler/meta", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var meta dto.SchedulerMetaResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &meta))
	require.Len(t, meta.Teachers, 1)
	assert.Equal(t, "Ahmad", meta.Teachers[0].Name)
}

func TestSchedulerHandlerMetaError(t *testing.T) {
	router := newSchedulerRouter(&schedulerConfiguratorMock{err: appErrors.Clone(appErrors.ErrInternal, "db down")}, &scheduleGeneratorMock{}, "")

	w := perform(router, http.MethodGet, "/scheduler/meta", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "db down", decodeEnvelope(t, w).Error.Message)
}

func TestSchedulerHandlerWritesRequireAdmin(t *testing.T) {
	unauth := newSchedulerRouter(&schedulerConfiguratorMock{}, &scheduleGeneratorMock{}, "")
	w := perform(unauth, http.MethodPost, "/scheduler/generate", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	gen := &scheduleGeneratorMock{}
	teacher := newSchedulerRouter(&schedulerConfiguratorMock{}, gen, models.RoleTeacher)
	w = perform(teacher, http.MethodPost, "/scheduler/reset", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, gen.resetCalled)
}

func TestSchedulerHandlerGenerateAcceptsEmptyBody(t *testing.T) {
	gen := &scheduleGeneratorMock{}
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, gen, models.RoleAdmin)

	w := perform(router, http.MethodPost, "/scheduler/generate", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.GenerateResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Empty(t, gen.generateReq.Days)
}

func TestSchedulerHandlerGenerateBindsBody(t *testing.T) {
	gen := &scheduleGeneratorMock{}
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, gen, models.RoleSuperAdmin)

	w := perform(router, http.MethodPost, "/scheduler/generate", []byte(`{"days":["Senin"],"hoursByDay":{"Senin":6},"seed":5}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Senin"}, gen.generateReq.Days)
	assert.Equal(t, 6, gen.generateReq.HoursByDay["Senin"])
	require.NotNil(t, gen.generateReq.Seed)
	assert.Equal(t, int64(5), *gen.generateReq.Seed)
}

func TestSchedulerHandlerGenerateMalformedBody(t *testing.T) {
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, &scheduleGeneratorMock{}, models.RoleAdmin)

	w := perform(router, http.MethodPost, "/scheduler/generate", []byte(`{"days":`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedulerHandlerReadiness(t *testing.T) {
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, &scheduleGeneratorMock{}, models.RoleAdmin)

	w := perform(router, http.MethodPost, "/scheduler/readiness", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"ready":true`)
}

func TestSchedulerHandlerApplyCreated(t *testing.T) {
	gen := &scheduleGeneratorMock{}
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, gen, models.RoleAdmin)

	body := []byte(`{"rows":[{"day":"Senin","hour":1,"classId":"c1","subjectId":"math","teacherId":"t1"}]}`)
	w := perform(router, http.MethodPost, "/scheduler/apply", body)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, gen.applyReq.Rows, 1)
	assert.Equal(t, "t1", gen.applyReq.Rows[0].TeacherID)
}

func TestSchedulerHandlerApplyConflictMeta(t *testing.T) {
	conflict := &models.ScheduleConflictError{
		Type:    "SCHEDULE_CONFLICT",
		Message: "1 rows collide with scheduled entries",
		Errors:  []models.ScheduleConflict{{ScheduleID: "J001", Day: "Senin", Hour: 1, ClassID: "c1", Dimension: scheduler.DimensionClass}},
	}
	gen := &scheduleGeneratorMock{applyErr: appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "schedule conflicts detected")}
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, gen, models.RoleAdmin)

	w := perform(router, http.MethodPost, "/scheduler/apply", []byte(`{"runId":"run-1"}`))

	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, appErrors.ErrConflict.Code, env.Error.Code)
	conflicts, ok := env.Meta["conflicts"].([]interface{})
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "J001", conflicts[0].(map[string]interface{})["schedule_id"])
}

func TestSchedulerHandlerApplyEmpty(t *testing.T) {
	gen := &scheduleGeneratorMock{applyErr: appErrors.Clone(appErrors.ErrValidation, "no generated schedule to apply")}
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, gen, models.RoleAdmin)

	w := perform(router, http.MethodPost, "/scheduler/apply", []byte(`{"rows":[]}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "no generated schedule to apply", env.Error.Message)
	assert.Nil(t, env.Meta)
}

func TestSchedulerHandlerReset(t *testing.T) {
	gen := &scheduleGeneratorMock{}
	router := newSchedulerRouter(&schedulerConfiguratorMock{}, gen, models.RoleSuperAdmin)

	w := perform(router, http.MethodPost, "/scheduler/reset", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gen.resetCalled)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"count":3`)
}

func TestSchedulerHandlerTeacherSubjects(t *testing.T) {
	cfg := &schedulerConfiguratorMock{}
	router := newSchedulerRouter(cfg, &scheduleGeneratorMock{}, models.RoleAdmin)

	w := perform(router, http.MethodPut, "/scheduler/teacher-subjects/t1", []byte(`{"subjectIds":["math","bio"]}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", cfg.teacherID)
	assert.Equal(t, []string{"math", "bio"}, cfg.subjects.SubjectIDs)
}

func TestSchedulerHandlerTeacherLimitsBulk(t *testing.T) {
	cfg := &schedulerConfiguratorMock{}
	router := newSchedulerRouter(cfg, &scheduleGeneratorMock{}, models.RoleAdmin)

	w := perform(router, http.MethodPut, "/scheduler/teacher-limits-bulk", []byte(`{"limits":[{"teacherId":"t1","maxWeek":24,"maxDay":6}]}`))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, cfg.limits.Limits, 1)
	require.NotNil(t, cfg.limits.Limits[0].MaxWeek)
	assert.Equal(t, 24, *cfg.limits.Limits[0].MaxWeek)
	assert.Nil(t, cfg.limits.Limits[0].MinLinier)
}
