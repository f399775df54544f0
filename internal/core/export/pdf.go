package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter implements PDF export using gofpdf
type PDFExporter struct {
	pageSize string
}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{pageSize: "A4"}
}

// Export draws the table with equal column widths, repeating the header on each page
func (p *PDFExporter) Export(table *Table, w io.Writer) error {
	if len(table.Headers) == 0 {
		return fmt.Errorf("no headers provided")
	}

	orientation := "P"
	if table.Style.Landscape {
		orientation = "L"
	}
	fontSize := table.Style.FontSize
	if fontSize <= 0 {
		fontSize = 9
	}

	pdf := gofpdf.New(orientation, "mm", p.pageSize, "")
	pdf.AddPage()

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, table.Title)
		pdf.Ln(10)
	}
	if !table.GeneratedAt.IsZero() {
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(0, 5, "Generated: "+table.GeneratedAt.Format("2006-01-02 15:04:05"))
		pdf.Ln(8)
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(table.Headers))

	header := func() {
		pdf.SetFont("Arial", "B", fontSize)
		r, g, b := hexToRGB(table.Style.HeaderBgColor)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		for _, h := range table.Headers {
			pdf.CellFormat(colWidth, 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", fontSize)
	}
	header()

	stripe := table.Style.RowBgColor != ""
	for i, values := range table.Rows {
		fill := stripe && i%2 == 1
		if fill {
			r, g, b := hexToRGB(table.Style.RowBgColor)
			pdf.SetFillColor(r, g, b)
		}
		for _, v := range values {
			pdf.CellFormat(colWidth, 6, truncate(pdf, v, colWidth-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)

		if pdf.GetY() > pageHeight-bottom-10 {
			pdf.AddPage()
			header()
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// ContentType returns the MIME type for PDF files
func (p *PDFExporter) ContentType() string {
	return "application/pdf"
}

// FileExtension returns the file extension for PDF files
func (p *PDFExporter) FileExtension() string {
	return ".pdf"
}

// truncate shortens s with "..." until it fits width
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// hexToRGB converts a hex color to RGB, defaulting to white
func hexToRGB(hex string) (int, int, int) {
	hex = stripHash(hex)
	if len(hex) != 6 {
		return 255, 255, 255
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 255, 255, 255
	}
	return r, g, b
}
