package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter writes the header row followed by the data rows
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Export(table *Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func (e *CSVExporter) ContentType() string   { return "text/csv" }
func (e *CSVExporter) FileExtension() string { return ".csv" }
