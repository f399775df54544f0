package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter implements Excel export using excelize
type ExcelExporter struct {
	sheetName string
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{sheetName: "Runs"}
}

// Export writes the title, a styled header row and the data rows,
// with the header frozen and an auto-filter over the table
func (e *ExcelExporter) Export(table *Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	row := 1
	if table.Title != "" {
		if err := f.SetCellValue(e.sheetName, cellName(1, row), table.Title); err != nil {
			return err
		}
		row += 2
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: table.Style.FontSize},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripHash(table.Style.HeaderBgColor)}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headerRow := row
	for col, header := range table.Headers {
		cell := cellName(col+1, row)
		if err := f.SetCellValue(e.sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(e.sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
		if width, ok := table.Style.ColumnWidths[col]; ok {
			name, _ := excelize.ColumnNumberToName(col + 1)
			if err := f.SetColWidth(e.sheetName, name, name, width); err != nil {
				return err
			}
		}
	}
	row++

	var stripe int
	if table.Style.RowBgColor != "" {
		stripe, err = f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripHash(table.Style.RowBgColor)}},
		})
		if err != nil {
			return fmt.Errorf("failed to create row style: %w", err)
		}
	}

	for i, values := range table.Rows {
		for col, v := range values {
			cell := cellName(col+1, row)
			if err := f.SetCellValue(e.sheetName, cell, v); err != nil {
				return err
			}
			if stripe != 0 && i%2 == 1 {
				if err := f.SetCellStyle(e.sheetName, cell, cell, stripe); err != nil {
					return err
				}
			}
		}
		row++
	}

	if err := f.SetPanes(e.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cellName(1, headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if len(table.Headers) > 0 {
		ref := cellName(1, headerRow) + ":" + cellName(len(table.Headers), headerRow+len(table.Rows))
		if err := f.AutoFilter(e.sheetName, ref, nil); err != nil {
			return fmt.Errorf("failed to add auto-filter: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// ContentType returns the MIME type for Excel files
func (e *ExcelExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns the file extension for Excel files
func (e *ExcelExporter) FileExtension() string {
	return ".xlsx"
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func stripHash(color string) string {
	if len(color) > 0 && color[0] == '#' {
		return color[1:]
	}
	return color
}
