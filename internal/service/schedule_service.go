package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type scheduleEntryReader interface {
	List(ctx context.Context, filter models.ScheduleEntryFilter, dayOrder []string) ([]models.ScheduleEntryDetail, error)
}

type scheduleConfigReader interface {
	GetScheduleConfig(ctx context.Context) (*models.ScheduleConfig, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(title string, grids []export.Grid) ([]byte, error)
}

// ExportFile is a rendered timetable document.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ScheduleService lists and exports applied timetables.
type ScheduleService struct {
	entries   scheduleEntryReader
	configs   scheduleConfigReader
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(entries scheduleEntryReader, configs scheduleConfigReader, csv csvRenderer, pdf pdfRenderer, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ScheduleService{entries: entries, configs: configs, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

// List returns applied rows in configured day order, then hour and class.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error) {
	entries, _, err := s.list(ctx, query)
	return entries, err
}

// Export renders the applied rows as CSV or as one PDF timetable per class.
func (s *ScheduleService) Export(ctx context.Context, query dto.ScheduleQuery) (*ExportFile, error) {
	if query.Format == "" {
		query.Format = FormatCSV
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	entries, days, err := s.list(ctx, query)
	if err != nil {
		return nil, err
	}

	switch query.Format {
	case FormatPDF:
		grids := classGrids(entries, days)
		if len(grids) == 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule rows to export")
		}
		payload, err := s.pdf.Render("Jadwal Pelajaran", grids)
		if err != nil {
			return nil, s.renderFailed(err, query.Format)
		}
		return &ExportFile{Filename: "schedule.pdf", ContentType: "application/pdf", Payload: payload}, nil
	default:
		payload, err := s.csv.Render(scheduleDataset(entries))
		if err != nil {
			return nil, s.renderFailed(err, query.Format)
		}
		return &ExportFile{Filename: "schedule.csv", ContentType: "text/csv", Payload: payload}, nil
	}
}

func (s *ScheduleService) list(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, []string, error) {
	var days []string
	if s.configs != nil {
		cfg, err := s.configs.GetScheduleConfig(ctx)
		if err != nil {
			return nil, nil, err
		}
		if cfg != nil {
			days = cfg.Days
		}
	}

	filter := models.ScheduleEntryFilter{Day: query.Day, ClassID: query.ClassID, TeacherID: query.TeacherID}
	entries, err := s.entries.List(ctx, filter, days)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if entries == nil {
		entries = []models.ScheduleEntryDetail{}
	}
	return entries, days, nil
}

func (s *ScheduleService) renderFailed(err error, format string) error {
	s.logger.Error("schedule export failed", zap.String("format", format), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
}

func scheduleDataset(entries []models.ScheduleEntryDetail) export.Dataset {
	data := export.Dataset{
		Headers: []string{"id", "day", "hour", "class_id", "class", "subject_id", "subject", "teacher_id", "teacher"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		data.Rows = append(data.Rows, []string{
			e.ID, e.Day, strconv.Itoa(e.Hour),
			e.ClassID, deref(e.ClassName, e.ClassID),
			e.SubjectID, deref(e.SubjectName, e.SubjectID),
			e.TeacherID, deref(e.TeacherName, e.TeacherID),
		})
	}
	return data
}

// classGrids groups entries into one grid per class. Columns follow days when
// given; otherwise the days present in entries, in first-seen order.
func classGrids(entries []models.ScheduleEntryDetail, days []string) []export.Grid {
	byClass := make(map[string]*export.Grid)
	var order []string
	seenDays := make(map[string]bool)
	var entryDays []string

	for _, e := range entries {
		grid, ok := byClass[e.ClassID]
		if !ok {
			grid = &export.Grid{Heading: deref(e.ClassName, e.ClassID), Cells: make(map[string]map[int]string)}
			byClass[e.ClassID] = grid
			order = append(order, e.ClassID)
		}
		if grid.Cells[e.Day] == nil {
			grid.Cells[e.Day] = make(map[int]string)
		}
		grid.Cells[e.Day][e.Hour] = fmt.Sprintf("%s / %s", deref(e.SubjectName, e.SubjectID), deref(e.TeacherName, e.TeacherID))
		if e.Hour > grid.Hours {
			grid.Hours = e.Hour
		}
		if !seenDays[e.Day] {
			seenDays[e.Day] = true
			entryDays = append(entryDays, e.Day)
		}
	}
	if len(days) == 0 {
		days = entryDays
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byClass[order[i]].Heading < byClass[order[j]].Heading
	})
	grids := make([]export.Grid, 0, len(order))
	for _, classID := range order {
		grid := byClass[classID]
		grid.Days = days
		grids = append(grids, *grid)
	}
	return grids
}

func deref(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
