package output

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/valyala/fastjson"

	"github.com/vegasq/logq/internal/client"
)

var (
	dimText    = color.New(color.Faint)
	redText    = color.New(color.FgRed)
	yellowText = color.New(color.FgYellow)
	blueText   = color.New(color.FgBlue)
	cyanText   = color.New(color.FgCyan)
	whiteText  = color.New(color.FgWhite)
)

// levelWordRe recognizes a level word inside non-JSON raw payloads.
var levelWordRe = regexp.MustCompile(`(?i)\b(ERROR|WARN|WARNING|INFO|DEBUG|FATAL)\b`)

// metaColumns are rendered on the log line itself rather than as extra
// fields underneath it.
var metaColumns = map[string]bool{
	"dt": true, "raw": true, "level": true, "message": true,
	"subsystem": true, "time": true, "severity": true,
}

// PrettyFormatter renders entries as colored human-readable log lines.
type PrettyFormatter struct {
	writer io.Writer
}

// NewPrettyFormatter creates a new pretty formatter
func NewPrettyFormatter(w io.Writer) *PrettyFormatter {
	return &PrettyFormatter{writer: w}
}

// SetOutput sets the output writer
func (p *PrettyFormatter) SetOutput(w io.Writer) {
	p.writer = w
}

// Format writes one line per entry: dim timestamp, colored level, cyan
// subsystem tag and the message, with any extra fields indented below.
func (p *PrettyFormatter) Format(entries []client.Entry) error {
	var parser fastjson.Parser

	for _, entry := range entries {
		var raw *fastjson.Value
		if entry.HasRaw() && entry.Raw != "" {
			if v, err := parser.Parse(entry.Raw); err == nil && v.Type() == fastjson.TypeObject {
				raw = v
			}
		}

		timestamp := entry.DT
		if timestamp == "" {
			timestamp = "No timestamp"
		}

		line := dimText.Sprint(timestamp) + " " + levelWord(entry, raw)
		if subsystem := extractSubsystem(entry, raw); subsystem != "" {
			line += " " + cyanText.Sprint("["+subsystem+"]")
		}
		line += " " + extractMessage(entry, raw)

		if _, err := fmt.Fprintln(p.writer, line); err != nil {
			return err
		}
		if err := p.writeExtras(entry, raw); err != nil {
			return err
		}
	}
	return nil
}

// writeExtras prints the non-meta fields of the raw payload and any extra
// selected columns, indented under the log line.
func (p *PrettyFormatter) writeExtras(entry client.Entry, raw *fastjson.Value) error {
	emit := func(key, value string) error {
		_, err := fmt.Fprintf(p.writer, "  %s: %s\n", dimText.Sprint(key), value)
		return err
	}

	if raw != nil {
		obj, _ := raw.Object()
		var visitErr error
		obj.Visit(func(key []byte, v *fastjson.Value) {
			if visitErr != nil || metaColumns[string(key)] {
				return
			}
			visitErr = emit(string(key), renderRawValue(v))
		})
		if visitErr != nil {
			return visitErr
		}
	} else if entry.HasRaw() && entry.Raw != "" {
		// Non-JSON payloads surface as a literal raw field.
		if err := emit("raw", entry.Raw); err != nil {
			return err
		}
	}

	for _, f := range entry.Extra {
		if metaColumns[f.Key] {
			continue
		}
		value := ""
		switch f.Value.(type) {
		case client.Object, []interface{}:
			value = indentedJSON(f.Value)
		default:
			value = cellValue(f.Value, true)
		}
		if err := emit(f.Key, value); err != nil {
			return err
		}
	}
	return nil
}

// levelWord colors the entry's level: red for error/fatal, yellow for
// warnings, blue for info, dim for debug, dim LOG when no level is found.
func levelWord(entry client.Entry, raw *fastjson.Value) string {
	level := extractLevel(entry, raw)
	if level == "" {
		return dimText.Sprint("LOG")
	}

	upper := strings.ToUpper(level)
	switch strings.ToLower(level) {
	case "error", "fatal":
		return redText.Sprint(upper)
	case "warn", "warning":
		return yellowText.Sprint(upper)
	case "info":
		return blueText.Sprint(upper)
	case "debug":
		return dimText.Sprint(upper)
	default:
		return whiteText.Sprint(upper)
	}
}

// extractLevel finds the log level: the level column, then the raw
// payload's level, severity, or vercel.level keys, then a level word
// scanned out of a non-JSON payload.
func extractLevel(entry client.Entry, raw *fastjson.Value) string {
	if level := entry.GetString("level"); level != "" {
		return level
	}
	if raw != nil {
		if level := stringField(raw, "level"); level != "" {
			return level
		}
		if severity := stringField(raw, "severity"); severity != "" {
			return severity
		}
		return stringField(raw, "vercel", "level")
	}
	if entry.HasRaw() {
		if m := levelWordRe.FindString(entry.Raw); m != "" {
			return m
		}
	}
	return ""
}

// extractMessage finds the display message: the message column, the raw
// payload's message or msg keys, the whole payload as compact JSON, the
// literal payload, or the entire entry.
func extractMessage(entry client.Entry, raw *fastjson.Value) string {
	if message := entry.GetString("message"); message != "" {
		return message
	}
	if raw != nil {
		if message := stringField(raw, "message"); message != "" {
			return message
		}
		if message := stringField(raw, "msg"); message != "" {
			return message
		}
		return raw.String()
	}
	if entry.HasRaw() && entry.Raw != "" {
		return entry.Raw
	}
	return compactJSON(entry)
}

// extractSubsystem finds the subsystem tag: the subsystem column, then
// the raw payload's subsystem, service, or component keys.
func extractSubsystem(entry client.Entry, raw *fastjson.Value) string {
	if subsystem := entry.GetString("subsystem"); subsystem != "" {
		return subsystem
	}
	if raw == nil {
		return ""
	}
	for _, key := range []string{"subsystem", "service", "component"} {
		if v := stringField(raw, key); v != "" {
			return v
		}
	}
	return ""
}

func stringField(v *fastjson.Value, keys ...string) string {
	return string(v.GetStringBytes(keys...))
}

// renderRawValue renders one raw-payload field: composites as indented
// JSON, strings without quotes, other scalars as their JSON text.
func renderRawValue(v *fastjson.Value) string {
	switch v.Type() {
	case fastjson.TypeObject, fastjson.TypeArray:
		compact := v.MarshalTo(nil)
		var buf bytes.Buffer
		if err := stdjson.Indent(&buf, compact, "  ", "  "); err != nil {
			return string(compact)
		}
		return buf.String()
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	default:
		return v.String()
	}
}
