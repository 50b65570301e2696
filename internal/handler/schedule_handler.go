package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type scheduleReader interface {
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error)
	Export(ctx context.Context, query dto.ScheduleQuery) (*service.ExportFile, error)
}

// ScheduleHandler serves applied timetables.
type ScheduleHandler struct {
	service scheduleReader
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc scheduleReader) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List applied schedule rows
// @Tags Schedules
// @Produce json
// @Param day query string false "Day"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	query, ok := bindScheduleQuery(c)
	if !ok {
		return
	}
	rows, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"total": len(rows)})
}

// Export godoc
// @Summary Download applied schedule rows
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param day query string false "Day"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Success 200 {file} file
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	query, ok := bindScheduleQuery(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.ContentType, file.Filename, file.Payload)
}

func bindScheduleQuery(c *gin.Context) (dto.ScheduleQuery, bool) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return query, false
	}
	return query, true
}
