package export

import (
	"fmt"
	"io"
	"time"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/core/jobs"
)

// Service renders job history reports
type Service struct {
	exporters map[Format]Exporter
}

// NewService creates a new export service
func NewService() *Service {
	return &Service{
		exporters: map[Format]Exporter{
			FormatCSV:   NewCSVExporter(),
			FormatExcel: NewExcelExporter(),
			FormatPDF:   NewPDFExporter(),
		},
	}
}

// Exporter returns the exporter for format
func (s *Service) Exporter(format Format) (Exporter, error) {
	e, ok := s.exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	return e, nil
}

// ExportJobs writes the job history in format
func (s *Service) ExportJobs(history []jobs.Job, format Format, w io.Writer) error {
	e, err := s.Exporter(format)
	if err != nil {
		return err
	}
	if err := e.Export(JobsTable(history), w); err != nil {
		return fmt.Errorf("%s export failed: %w", format, err)
	}
	return nil
}

// JobsTable converts job history into a report table, one row per job
func JobsTable(history []jobs.Job) *Table {
	style := DefaultStyle()
	style.ColumnWidths = map[int]float64{0: 38, 5: 40, 6: 30}

	table := &Table{
		Title:       "OCR relay runs",
		GeneratedAt: time.Now(),
		Headers:     []string{"ID", "Trigger", "Status", "Started", "Duration", "Result", "Error"},
		Style:       style,
	}
	for _, j := range history {
		started, duration := "", ""
		if j.StartedAt != nil {
			started = j.StartedAt.Format(time.RFC3339)
			if j.CompletedAt != nil {
				duration = j.CompletedAt.Sub(*j.StartedAt).Round(time.Millisecond).String()
			}
		}
		table.Rows = append(table.Rows, []string{
			j.ID.String(),
			j.Trigger,
			string(j.Status),
			started,
			duration,
			j.Result,
			j.Error,
		})
	}
	return table
}
