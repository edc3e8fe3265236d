package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

var statementHeaders = []string{
	"student", "type", "base", "discount", "annual_fee", "entrance_fee", "insurance_fee", "spot_fee", "amount", "status",
}

// CSVExporter renders tuition statements into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the statement.
func (e *CSVExporter) Render(stmt Statement) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(statementHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range stmt.Rows {
		record := []string{
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
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
