package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// Grid is one class timetable: hours down the side, days across the top.
type Grid struct {
	Heading string
	Days    []string
	Hours   int
	// Cells maps day then hour (1-based) to the cell label.
	Cells map[string]map[int]string
}

// PDFExporter renders timetable grids, one landscape page per grid.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

const (
	pageWidth   = 277.0
	hourColumn  = 14.0
	headerRowHt = 8.0
	cellRowHt   = 12.0
)

// Render writes every grid to its own page under a shared title.
func (e *PDFExporter) Render(title string, grids []Grid) ([]byte, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("pdf requires at least one timetable")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)

	for _, grid := range grids {
		if len(grid.Days) == 0 {
			return nil, fmt.Errorf("timetable %q has no days", grid.Heading)
		}
		pdf.AddPage()
		if title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, grid.Heading, "", 1, "L", false, 0, "")
		pdf.Ln(2)

		dayWidth := (pageWidth - hourColumn) / float64(len(grid.Days))
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(hourColumn, headerRowHt, "Jam", "1", 0, "C", true, 0, "")
		for _, day := range grid.Days {
			pdf.CellFormat(dayWidth, headerRowHt, day, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for hour := 1; hour <= grid.Hours; hour++ {
			pdf.CellFormat(hourColumn, cellRowHt, strconv.Itoa(hour), "1", 0, "C", false, 0, "")
			for _, day := range grid.Days {
				pdf.CellFormat(dayWidth, cellRowHt, grid.Cells[day][hour], "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
