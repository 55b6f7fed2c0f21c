package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/vegasq/logq/internal/client"
)

// CSVFormatter outputs entries as CSV with a header row.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes entries as CSV. The header is the union of all columns in
// first-seen order, so the dt and raw base columns lead.
func (c *CSVFormatter) Format(entries []client.Entry) error {
	csvWriter := csv.NewWriter(c.writer)

	if len(entries) == 0 {
		csvWriter.Flush()
		return csvWriter.Error()
	}

	columns := columnOrder(entries)
	if err := csvWriter.Write(columns); err != nil {
		return err
	}

	for _, entry := range entries {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = cellValue(entry.Get(col))
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}
