// Package timeutil parses the relative and absolute time expressions
// accepted by --since/--until and renders ClickHouse datetime literals.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	relativeRe   = regexp.MustCompile(`^(\d+)([hdmw])$`)
	unitShapedRe = regexp.MustCompile(`^\d+[a-zA-Z]$`)
)

// absoluteLayouts are tried in order for non-relative expressions. Naive
// timestamps are interpreted as UTC.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse resolves a time expression against now. Relative expressions are
// an amount plus a single unit: "30m", "1h", "2d", "1w". Anything else is
// tried against the absolute layouts.
func Parse(expr string, now time.Time) (time.Time, error) {
	if m := relativeRe.FindStringSubmatch(expr); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time amount %q: %w", m[1], err)
		}
		d := time.Duration(amount)
		switch m[2] {
		case "h":
			return now.Add(-d * time.Hour), nil
		case "d":
			return now.Add(-d * 24 * time.Hour), nil
		case "m":
			return now.Add(-d * time.Minute), nil
		case "w":
			return now.Add(-d * 7 * 24 * time.Hour), nil
		}
	}

	if unitShapedRe.MatchString(expr) {
		return time.Time{}, fmt.Errorf("unknown time unit: %s", expr[len(expr)-1:])
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, expr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time format: %s", expr)
}

// ClickHouseDateTime formats t as a UTC "YYYY-MM-DD HH:MM:SS" literal.
func ClickHouseDateTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
