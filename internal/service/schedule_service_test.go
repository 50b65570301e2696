package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

func TestScheduleServiceListPassesFilterAndDayOrder(t *testing.T) {
	reader := &entryReaderStub{rows: sampleScheduleRows()}
	svc := NewScheduleService(reader, &configReaderStub{cfg: &models.ScheduleConfig{Days: []string{"Senin", "Selasa"}}}, nil, nil, nil, nil)

	rows, err := svc.List(context.Background(), dto.ScheduleQuery{ClassID: "c1", TeacherID: "t1"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, models.ScheduleEntryFilter{ClassID: "c1", TeacherID: "t1"}, reader.filter)
	assert.Equal(t, []string{"Senin", "Selasa"}, reader.dayOrder)
}

func TestScheduleServiceListEmpty(t *testing.T) {
	svc := NewScheduleService(&entryReaderStub{}, nil, nil, nil, nil, nil)

	rows, err := svc.List(context.Background(), dto.ScheduleQuery{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestScheduleServiceListError(t *testing.T) {
	svc := NewScheduleService(&entryReaderStub{err: errors.New("boom")}, nil, nil, nil, nil, nil)

	_, err := svc.List(context.Background(), dto.ScheduleQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceExportCSV(t *testing.T) {
	svc := NewScheduleService(&entryReaderStub{rows: sampleScheduleRows()}, nil, nil, nil, nil, nil)

	file, err := svc.Export(context.Background(), dto.ScheduleQuery{})
	require.NoError(t, err)
	assert.Equal(t, "schedule.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Payload)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,day,hour,class_id,class,subject_id,subject,teacher_id,teacher", lines[0])
	assert.Equal(t, "J001,Senin,1,c1,X-A,math,Matematika,t1,Ahmad", lines[1])
	assert.Equal(t, "J003,Selasa,1,c1,X-A,bio,bio,t1,Ahmad", lines[3], "missing names fall back to ids")
}

func TestScheduleServiceExportPDFGroupsByClass(t *testing.T) {
	pdf := &pdfRendererStub{}
	rows := append(sampleScheduleRows(), models.ScheduleEntryDetail{
		ScheduleEntry: models.ScheduleEntry{ID: "J004", Day: "Senin", Hour: 1, ClassID: "c0", SubjectID: "math", TeacherID: "t2"},
		ClassName:     strRef("IX-B"),
	})
	svc := NewScheduleService(&entryReaderStub{rows: rows}, &configReaderStub{cfg: &models.ScheduleConfig{Days: []string{"Senin", "Selasa", "Rabu"}}}, nil, pdf, nil, nil)

	file, err := svc.Export(context.Background(), dto.ScheduleQuery{Format: FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "schedule.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, []byte("%PDF"), file.Payload)

	assert.Equal(t, "Jadwal Pelajaran", pdf.title)
	require.Len(t, pdf.grids, 2)
	assert.Equal(t, "IX-B", pdf.grids[0].Heading)
	assert.Equal(t, "X-A", pdf.grids[1].Heading)
	assert.Equal(t, []string{"Senin", "Selasa", "Rabu"}, pdf.grids[1].Days)
	assert.Equal(t, 2, pdf.grids[1].Hours)
	assert.Equal(t, "Matematika / Ahmad", pdf.grids[1].Cells["Senin"][1])
}

func TestScheduleServiceExportPDFWithoutRows(t *testing.T) {
	svc := NewScheduleService(&entryReaderStub{}, nil, nil, &pdfRendererStub{}, nil, nil)

	_, err := svc.Export(context.Background(), dto.ScheduleQuery{Format: FormatPDF})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceExportRejectsUnknownFormat(t *testing.T) {
	reader := &entryReaderStub{}
	svc := NewScheduleService(reader, nil, nil, nil, nil, nil)

	_, err := svc.Export(context.Background(), dto.ScheduleQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, reader.called)
}

func TestScheduleServiceExportRenderFailure(t *testing.T) {
	svc := NewScheduleService(&entryReaderStub{rows: sampleScheduleRows()}, nil, nil, &pdfRendererStub{err: errors.New("font missing")}, nil, nil)

	_, err := svc.Export(context.Background(), dto.ScheduleQuery{Format: FormatPDF})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func sampleScheduleRows() []models.ScheduleEntryDetail {
	return []models.ScheduleEntryDetail{
		{
			ScheduleEntry: models.ScheduleEntry{ID: "J001", Day: "Senin", Hour: 1, ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
			ClassName:     strRef("X-A"), SubjectName: strRef("Matematika"), TeacherName: strRef("Ahmad"),
		},
		{
			ScheduleEntry: models.ScheduleEntry{ID: "J002", Day: "Senin", Hour: 2, ClassID: "c1", SubjectID: "math", TeacherID: "t1"},
			ClassName:     strRef("X-A"), SubjectName: strRef("Matematika"), TeacherName: strRef("Ahmad"),
		},
		{
			ScheduleEntry: models.ScheduleEntry{ID: "J003", Day: "Selasa", Hour: 1, ClassID: "c1", SubjectID: "bio", TeacherID: "t1"},
			ClassName:     strRef("X-A"), TeacherName: strRef("Ahmad"),
		},
	}
}

func strRef(v string) *string { return &v }

type entryReaderStub struct {
	rows     []models.ScheduleEntryDetail
	err      error
	called   bool
	filter   models.ScheduleEntryFilter
	dayOrder []string
}

func (s *entryReaderStub) List(ctx context.Context, filter models.ScheduleEntryFilter, dayOrder []string) ([]models.ScheduleEntryDetail, error) {
	s.called = true
	s.filter = filter
	s.dayOrder = dayOrder
	return s.rows, s.err
}

type configReaderStub struct {
	cfg *models.ScheduleConfig
}

func (s *configReaderStub) GetScheduleConfig(ctx context.Context) (*models.ScheduleConfig, error) {
	return s.cfg, nil
}

type pdfRendererStub struct {
	title string
	grids []export.Grid
	err   error
}

func (s *pdfRendererStub) Render(title string, grids []export.Grid) ([]byte, error) {
	s.title = title
	s.grids = grids
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF"), nil
}
