package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders tuition statements into a tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF statement with a title line and one row per student.
func (e *PDFExporter) Render(stmt Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, stmt.Title(), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 9)
	colWidth := 190.0 / float64(len(statementHeaders))
	for _, header := range statementHeaders {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range stmt.Rows {
		cells := []string{
			row.StudentName,
			row.PlayerType,
			strconv.Itoa(row.BaseAmount),
			strconv.Itoa(row.Discount),
			strconv.Itoa(row.AnnualFee),
			strconv.Itoa(row.EntranceFee),
			strconv.Itoa(row.Insurance),
			strconv.Itoa(row.SpotFee),
			strconv.Itoa(row.Amount),
			paidLabel(row.Paid),
		}
		for _, value := range cells {
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(colWidth*8, 8, "total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidth, 8, strconv.Itoa(stmt.TotalAmount()), "1", 0, "", false, 0, "")
	pdf.CellFormat(colWidth, 8, "", "1", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
