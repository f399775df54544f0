package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Format is an export file format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts the format names and common file extensions
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv", "":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Exporter writes a Table in one file format
type Exporter interface {
	Export(table *Table, w io.Writer) error
	ContentType() string
	FileExtension() string
}

// Table is a titled grid of string cells
type Table struct {
	Title       string
	GeneratedAt time.Time
	Headers     []string
	Rows        [][]string
	Style       Style
}

// Style holds the few presentation knobs the binary formats use
type Style struct {
	Landscape     bool
	HeaderBgColor string // hex, e.g. "#4472C4"
	RowBgColor    string // fill for every other row, empty for none
	FontSize      float64
	ColumnWidths  map[int]float64 // column index -> width (Excel units)
}

// DefaultStyle returns the default report styling
func DefaultStyle() Style {
	return Style{
		Landscape:     true,
		HeaderBgColor: "#4472C4",
		RowBgColor:    "#F2F2F2",
		FontSize:      9,
		ColumnWidths:  map[int]float64{},
	}
}
