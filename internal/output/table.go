package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/logq/internal/client"
)

// TableFormatter outputs entries as an aligned terminal table.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format writes entries as a table with one column per distinct key, in
// first-seen order.
func (t *TableFormatter) Format(entries []client.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(t.writer, "No results found")
		return err
	}

	columns := columnOrder(entries)

	table := tablewriter.NewWriter(t.writer)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColWidth(80)

	for _, entry := range entries {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = cellValue(entry.Get(col))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}
