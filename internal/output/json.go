package output

import (
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/vegasq/logq/internal/client"
)

// JSONFormatter outputs entries as a 2-space indented JSON array.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes entries as an indented JSON array, preserving column
// order within each entry.
func (j *JSONFormatter) Format(entries []client.Entry) error {
	if entries == nil {
		entries = []client.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if _, err := j.writer.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(j.writer, "\n")
	return err
}

// compactJSON renders a value as compact JSON, or "" when the value
// cannot be encoded.
func compactJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// indentedJSON renders a value as 2-space indented JSON.
func indentedJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return compactJSON(v)
	}
	return string(data)
}
