package query

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidQueryFormat reports shorthand input that does not match the
// { logs(...) { ... } } shape.
var ErrInvalidQueryFormat = errors.New("invalid query format: expected { logs(...) { ... } }")

var logsCallRe = regexp.MustCompile(`(?s)logs\s*\((.*?)\)\s*\{(.*?)\}`)

// ParseShorthand parses the bracketed shorthand mini-language into
// Options. Leading and trailing braces are optional.
func ParseShorthand(input string) (Options, error) {
	normalized := strings.TrimSpace(input)
	if strings.HasPrefix(normalized, "{") && strings.HasSuffix(normalized, "}") {
		normalized = strings.TrimSpace(normalized[1 : len(normalized)-1])
	}

	m := logsCallRe.FindStringSubmatch(normalized)
	if m == nil {
		return Options{}, ErrInvalidQueryFormat
	}

	var opts Options

	for _, arg := range parseArguments(m[1]) {
		switch arg.Field {
		case "limit":
			if n, ok := arg.Value.AsInt(); ok {
				opts.Limit = int(n)
			}
		case "level":
			opts.Level = arg.Value.Text()
		case "subsystem":
			opts.Subsystem = arg.Value.Text()
		case "since":
			opts.Since = arg.Value.Text()
		case "until":
			opts.Until = arg.Value.Text()
		case "between":
			if arg.Value.Kind == KindArray && len(arg.Value.Items) == 2 {
				opts.Since = arg.Value.Items[0].Text()
				opts.Until = arg.Value.Items[1].Text()
			}
		case "search":
			opts.Search = arg.Value.Text()
		case "where":
			if arg.Value.Kind == KindObject {
				for _, member := range arg.Value.Members {
					opts.Where = SetCondition(opts.Where, member.Key, member.Value)
				}
			}
		case "source":
			opts.Source = arg.Value.Text()
		}
	}

	if fieldList := parseFieldList(m[2]); fieldList != nil {
		opts.Fields = fieldList
	}

	return opts, nil
}

// parseArguments splits a comma-separated key:value list into ordered
// conditions. Nesting depth and quoting are tracked so commas and colons
// inside nested structures or strings do not split top-level arguments.
func parseArguments(args string) []Condition {
	var result []Condition
	var key string
	var value strings.Builder
	depth := 0
	inString := false
	var stringChar byte

	for i := 0; i < len(args); i++ {
		c := args[i]

		switch {
		case inString:
			if c == stringChar && (i == 0 || args[i-1] != '\\') {
				inString = false
			}
			value.WriteByte(c)
		case c == '"' || c == '\'':
			inString = true
			stringChar = c
			value.WriteByte(c)
		case c == '{' || c == '[':
			depth++
			value.WriteByte(c)
		case c == '}' || c == ']':
			depth--
			value.WriteByte(c)
		case c == ':' && depth == 0 && key == "":
			key = strings.TrimSpace(value.String())
			value.Reset()
		case c == ',' && depth == 0:
			if key != "" {
				result = SetCondition(result, key, parseArgValue(strings.TrimSpace(value.String())))
				key = ""
				value.Reset()
			}
		default:
			value.WriteByte(c)
		}
	}

	if key != "" && value.Len() > 0 {
		result = SetCondition(result, key, parseArgValue(strings.TrimSpace(value.String())))
	}

	return result
}

var bareIntRe = regexp.MustCompile(`^\d+$`)

// parseArgValue converts one shorthand argument value into a Value.
// Nested objects and arrays are comma-split without recursion into deeper
// nesting; each element is independently value-parsed.
func parseArgValue(value string) Value {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return StringValue(value[1 : len(value)-1])
		}
	}

	if bareIntRe.MatchString(value) {
		if v := InferValue(value); v.Kind == KindInt {
			return v
		}
	}

	if value == "true" {
		return BoolValue(true)
	}
	if value == "false" {
		return BoolValue(false)
	}

	if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
		var members []Member
		for _, pair := range strings.Split(value[1:len(value)-1], ",") {
			k, v, found := strings.Cut(pair, ":")
			if !found {
				continue
			}
			k = strings.TrimSpace(k)
			v = strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			members = append(members, Member{Key: k, Value: parseArgValue(v)})
		}
		return ObjectValue(members)
	}

	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		var items []Value
		for _, element := range strings.Split(value[1:len(value)-1], ",") {
			items = append(items, parseArgValue(strings.TrimSpace(element)))
		}
		return ArrayValue(items)
	}

	return StringValue(value)
}

// parseFieldList splits the selected-field block. A lone leading "*" means
// the default selection, reported as nil.
func parseFieldList(fields string) []string {
	var names []string
	for _, name := range strings.Split(fields, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 || names[0] == "*" {
		return nil
	}
	return names
}
