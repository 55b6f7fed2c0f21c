// Package query turns structured query options into ClickHouse SQL.
//
// It holds the canonical Options request, the tagged Value variant used by
// where clauses, the shorthand parser for the bracketed
// "{ logs(...) { ... } }" mini-language, and the SQL statement builder.
package query

import (
	"strings"
)

// Options is the canonical structured query request.
type Options struct {
	Limit     int    // 0 means unset
	Level     string // case-insensitive log level filter
	Subsystem string
	Since     string // relative or absolute time expression
	Until     string
	Search    string // free-text substring match
	Where     []Condition
	Fields    []string // nil means the default dt, raw selection
	Source    string
	Sources   []string // merge mode
	Verbose   bool
}

// Condition pairs a field path with its filter value, in input order.
type Condition struct {
	Field string
	Value Value
}

// SetCondition updates an existing condition for the field or appends a
// new one, preserving first-seen order.
func SetCondition(conds []Condition, field string, value Value) []Condition {
	for i := range conds {
		if conds[i].Field == field {
			conds[i].Value = value
			return conds
		}
	}
	return append(conds, Condition{Field: field, Value: value})
}

// ParseWhereFlags converts repeatable "field=value" flag values into
// ordered conditions. One layer of matching outer quotes is stripped from
// the value before type inference.
func ParseWhereFlags(flags []string) []Condition {
	var conds []Condition

	for _, raw := range flags {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		eq := strings.Index(trimmed, "=")
		if eq <= 0 {
			continue
		}

		field := strings.TrimSpace(trimmed[:eq])
		if field == "" {
			continue
		}

		value := strings.TrimSpace(trimmed[eq+1:])
		if len(value) >= 2 {
			first, last := value[0], value[len(value)-1]
			if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		conds = SetCondition(conds, field, InferValue(value))
	}

	return conds
}

// SplitList flattens comma-separated flag values into a deduplicated list,
// preserving first-seen order.
func SplitList(values []string) []string {
	var names []string
	seen := make(map[string]bool)

	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}

	return names
}
