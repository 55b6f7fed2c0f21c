// Package output provides formatters for rendering log entries.
//
// Supported formats:
//   - json: a 2-space indented JSON array
//   - csv: comma-separated values with a header row
//   - table: an aligned terminal table
//   - pretty: colored single-line log rendering
//
// Example usage:
//
//	formatter := output.New("pretty", os.Stdout)
//	if err := formatter.Format(entries); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/logq/internal/client"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes entries in the formatter's specific format
	Format(entries []client.Entry) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// New returns the formatter for a format name. Unknown names fall back to
// json.
func New(format string, w io.Writer) Formatter {
	switch format {
	case "pretty":
		return NewPrettyFormatter(w)
	case "table":
		return NewTableFormatter(w)
	case "csv":
		return NewCSVFormatter(w)
	default:
		return NewJSONFormatter(w)
	}
}

// Render formats entries into a string.
func Render(entries []client.Entry, format string) (string, error) {
	var buf bytes.Buffer
	if err := New(format, &buf).Format(entries); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ResolveFormat validates a tail-mode format name. A jq filter forces
// json so the filter receives machine-readable input; unknown names fall
// back to pretty.
func ResolveFormat(format, jqFilter string) string {
	if jqFilter != "" {
		return "json"
	}
	switch format {
	case "json", "table", "csv", "pretty":
		return format
	}
	return "pretty"
}

// columnOrder returns the union of all entry columns in first-seen order.
func columnOrder(entries []client.Entry) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, e := range entries {
		for _, key := range e.Keys() {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	return columns
}

// cellValue converts a column value to its string rendering: composites as
// compact JSON, nil as empty.
func cellValue(v interface{}, ok bool) string {
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case client.Object, []interface{}:
		return compactJSON(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
