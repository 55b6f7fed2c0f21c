package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/vegasq/logq/internal/client"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{name: "json", format: "json", want: "*output.JSONFormatter"},
		{name: "csv", format: "csv", want: "*output.CSVFormatter"},
		{name: "table", format: "table", want: "*output.TableFormatter"},
		{name: "pretty", format: "pretty", want: "*output.PrettyFormatter"},
		{name: "unknown falls back to json", format: "yaml", want: "*output.JSONFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := New(tt.format, &buf)
			if got := typeName(formatter); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func typeName(f Formatter) string {
	switch f.(type) {
	case *JSONFormatter:
		return "*output.JSONFormatter"
	case *CSVFormatter:
		return "*output.CSVFormatter"
	case *TableFormatter:
		return "*output.TableFormatter"
	case *PrettyFormatter:
		return "*output.PrettyFormatter"
	}
	return "unknown"
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		jqFilter string
		expected string
	}{
		{name: "known format kept", format: "csv", expected: "csv"},
		{name: "unknown falls back to pretty", format: "yaml", expected: "pretty"},
		{name: "empty falls back to pretty", format: "", expected: "pretty"},
		{name: "jq forces json", format: "table", jqFilter: ".[]", expected: "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFormat(tt.format, tt.jqFilter); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRender(t *testing.T) {
	entries := []client.Entry{client.NewEntry("2024-03-15 12:00:00", "payload")}

	rendered, err := Render(entries, "json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasSuffix(rendered, "\n") {
		t.Error("rendered output should not carry a trailing newline")
	}
	if !strings.Contains(rendered, `"payload"`) {
		t.Errorf("unexpected render: %s", rendered)
	}
}

func TestTableFormatter_Format(t *testing.T) {
	first := client.NewEntry("2024-03-15 12:00:01", "one")
	first.Set("level", "info")
	second := client.NewEntry("2024-03-15 12:00:00", "two")

	var buf bytes.Buffer
	if err := NewTableFormatter(&buf).Format([]client.Entry{first, second}); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	for _, want := range []string{"dt", "raw", "level", "2024-03-15 12:00:01", "one", "info", "two"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTableFormatter(&buf).Format(nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "No results found" {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestPrettyFormatter_Format(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name     string
		entry    client.Entry
		contains []string
	}{
		{
			name:     "structured payload",
			entry:    client.NewEntry("2024-03-15 12:00:00", `{"level":"error","message":"boom","subsystem":"api"}`),
			contains: []string{"2024-03-15 12:00:00", "ERROR", "[api]", "boom"},
		},
		{
			name:     "plain text payload",
			entry:    client.NewEntry("2024-03-15 12:00:00", "WARN disk almost full"),
			contains: []string{"WARN", "disk almost full"},
		},
		{
			name:     "no level falls back to LOG",
			entry:    client.NewEntry("2024-03-15 12:00:00", `{"message":"plain"}`),
			contains: []string{"LOG", "plain"},
		},
		{
			name:     "missing timestamp placeholder",
			entry:    client.Entry{},
			contains: []string{"No timestamp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewPrettyFormatter(&buf).Format([]client.Entry{tt.entry}); err != nil {
				t.Fatal(err)
			}
			got := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestPrettyFormatter_ExtraFields(t *testing.T) {
	color.NoColor = true

	entry := client.NewEntry("2024-03-15 12:00:00",
		`{"level":"info","message":"hi","requestId":"abc-123","count":7}`)

	var buf bytes.Buffer
	if err := NewPrettyFormatter(&buf).Format([]client.Entry{entry}); err != nil {
		t.Fatal(err)
	}

	got := buf.String()
	if !strings.Contains(got, "requestId: abc-123") {
		t.Errorf("expected extra field line, got:\n%s", got)
	}
	if !strings.Contains(got, "count: 7") {
		t.Errorf("expected numeric extra field, got:\n%s", got)
	}
	// Meta fields stay on the log line, not in the extras block.
	if strings.Contains(got, "message: hi") {
		t.Errorf("message should not repeat as an extra:\n%s", got)
	}
}

func TestColumnOrder(t *testing.T) {
	first := client.NewEntry("d1", "r1")
	first.Set("b", 1)
	second := client.NewEntry("d2", "r2")
	second.Set("a", 2)
	second.Set("b", 3)

	got := columnOrder([]client.Entry{first, second})
	expected := []string{"dt", "raw", "b", "a"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}
