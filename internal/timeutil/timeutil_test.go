package timeutil

import (
	"testing"
	"time"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestParseRelative(t *testing.T) {
	tests := []struct {
		expr string
		want time.Time
	}{
		{"30m", testNow.Add(-30 * time.Minute)},
		{"1h", testNow.Add(-time.Hour)},
		{"2d", testNow.Add(-48 * time.Hour)},
		{"1w", testNow.Add(-7 * 24 * time.Hour)},
		{"0h", testNow},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr, testNow)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseAbsolute(t *testing.T) {
	tests := []struct {
		expr string
		want time.Time
	}{
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:30:00", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-01-01T10:30", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-01-01 10:30:00", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-01-01T10:30:00Z", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-01-01T10:30:00.250Z", time.Date(2024, 1, 1, 10, 30, 0, 250000000, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr, testNow)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{"5x", "1y", "yesterday", "", "10 minutes"} {
		t.Run(expr, func(t *testing.T) {
			if _, err := Parse(expr, testNow); err == nil {
				t.Errorf("Parse(%q) expected error, got none", expr)
			}
		})
	}
}

func TestClickHouseDateTime(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02 03:04:05"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, est), "2024-01-02 08:04:05"},
	}
	for _, tt := range tests {
		if got := ClickHouseDateTime(tt.in); got != tt.want {
			t.Errorf("ClickHouseDateTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
