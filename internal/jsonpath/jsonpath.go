// Package jsonpath compiles dotted and bracketed field expressions into
// ClickHouse JSON path strings.
//
// A field expression like "metadata.proxy[0].status" or
// "metadata['odd key']" is scanned once into segments and rendered as a
// "$"-rooted path ("$.metadata.proxy[0].status"). Expressions that already
// start with "$" are passed through untouched.
package jsonpath

import (
	"regexp"
	"strings"
)

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	integerRe    = regexp.MustCompile(`^-?\d+$`)
	escQuoteRe   = regexp.MustCompile(`\\(['"])`)
)

// Compile converts a raw field expression into a JSON path string.
func Compile(field string) string {
	trimmed := strings.TrimSpace(field)
	if strings.HasPrefix(trimmed, "$") {
		return trimmed
	}

	var path strings.Builder
	path.WriteString("$")
	for _, segment := range scan(trimmed) {
		if segment == "" {
			continue
		}
		if strings.HasPrefix(segment, "[") {
			path.WriteString(normalizeBracket(segment))
		} else {
			path.WriteString(normalizePlain(segment))
		}
	}
	return path.String()
}

// Accessor returns the value-accessor expression for a field.
func Accessor(field string) string {
	return "JSON_VALUE(raw, '" + Compile(field) + "')"
}

// scan splits a field expression into plain and bracket segments. Quote
// state is tracked inside brackets so a literal "." or "]" in a quoted key
// does not split segments.
func scan(s string) []string {
	var segments []string
	var buf strings.Builder
	inBracket := false
	var quote byte

	flushPlain := func() {
		if segment := strings.TrimSpace(buf.String()); segment != "" {
			segments = append(segments, segment)
		}
		buf.Reset()
	}
	flushBracket := func() {
		if buf.Len() > 0 {
			segments = append(segments, buf.String())
		}
		buf.Reset()
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if !inBracket {
			switch c {
			case '.':
				flushPlain()
			case '[':
				flushPlain()
				inBracket = true
				quote = 0
				buf.WriteByte('[')
			default:
				buf.WriteByte(c)
			}
			continue
		}

		buf.WriteByte(c)

		switch {
		case c == '"' || c == '\'':
			var prev byte
			if i > 0 {
				prev = s[i-1]
			}
			if quote == c && prev != '\\' {
				quote = 0
			} else if quote == 0 {
				quote = c
			}
		case c == ']' && quote == 0:
			flushBracket()
			inBracket = false
		}
	}

	// An unterminated bracket still flushes whatever was buffered.
	if buf.Len() > 0 {
		if inBracket {
			segments = append(segments, buf.String())
		} else {
			flushPlain()
		}
	}

	return segments
}

// normalizePlain renders a dotted segment: identifiers become ".name",
// anything else becomes an escaped quoted key.
func normalizePlain(segment string) string {
	cleaned := strings.TrimSpace(segment)
	if cleaned == "" {
		return ""
	}
	if identifierRe.MatchString(cleaned) {
		return "." + cleaned
	}
	return `["` + escapeKey(cleaned) + `"]`
}

// normalizeBracket renders a bracket segment: "[*]" passes through, quoted
// keys are re-escaped, integers index, and anything else is treated as an
// implicit quoted key.
func normalizeBracket(segment string) string {
	if !strings.HasPrefix(segment, "[") || !strings.HasSuffix(segment, "]") {
		return normalizePlain(segment)
	}

	inner := strings.TrimSpace(segment[1 : len(segment)-1])
	if inner == "" {
		return segment
	}
	if inner == "*" {
		return "[*]"
	}

	quote := inner[0]
	if (quote == '"' || quote == '\'') && len(inner) >= 2 && inner[len(inner)-1] == quote {
		key := inner[1 : len(inner)-1]
		key = escQuoteRe.ReplaceAllString(key, "$1")
		return `["` + escapeKey(key) + `"]`
	}

	if integerRe.MatchString(inner) {
		return "[" + inner + "]"
	}

	return `["` + escapeKey(inner) + `"]`
}

func escapeKey(key string) string {
	key = strings.ReplaceAll(key, `\`, `\\`)
	return strings.ReplaceAll(key, `"`, `\"`)
}
